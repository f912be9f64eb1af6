package consts

// MongoDB server error codes the collection handlers care about.
const (
	NamespaceNotFoundCode = 26
	NamespaceExistsCode   = 48

	DBSystemMongoDB = "mongodb"
)

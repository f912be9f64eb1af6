package cli

import (
	"fmt"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"
)

func logJSONCmd(cmd *cobra.Command, raw bool, v any) error {
	m, err := models.NewPayload(v).MarshalRelaxedJSON()
	if err != nil {
		return err
	}
	if raw {
		fmt.Fprintln(cmd.OutOrStdout(), string(m))
		return nil
	}

	pj, err := prettyjson.Format(m)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n\n", string(pj))
	return nil
}

func logErrorCmd(cmd *cobra.Command, err error) {
	boldRed := color.New(color.FgRed, color.Bold)
	boldRed.Fprintf(cmd.ErrOrStderr(), "\nerror: ")

	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n\n", color.RedString(err.Error()))
}

// parseJSONArg decodes a command-line argument as Extended JSON, so
// {"_id": {"$oid": "..."}} arrives as an ObjectID.
func parseJSONArg(arg string) (any, error) {
	var p models.Payload
	if err := p.UnmarshalJSON([]byte(arg)); err != nil {
		return nil, err
	}
	return p.Value(), nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/edgerunner/cypress-mongodb/internal/pkg/commands"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/dispatch"
	"github.com/edgerunner/cypress-mongodb/internal/pkg/models"
	"github.com/spf13/cobra"
)

// Runner runs a registered command. *commands.Registry satisfies it.
type Runner interface {
	Run(ctx context.Context, op models.Operation, args commands.Args) (*dispatch.Future, error)
}

// RunnerFactory opens a Runner for one invocation and returns its closer.
type RunnerFactory func(ctx context.Context) (Runner, func(), error)

type flags struct {
	database     string
	collection   string
	failSilently bool
	raw          bool
	timeout      time.Duration
}

type argKind int

const (
	payloadArg argKind = iota
	payloadAndUpdateArgs
	nameArg
)

type taskCommand struct {
	use   string
	short string
	op    models.Operation
	kind  argKind
}

var taskCommands = []taskCommand{
	{"aggregate <pipeline>", "Run an aggregation pipeline", models.OperationAggregate, payloadArg},
	{"find-one <query>", "Find the first matching document", models.OperationFindOne, payloadArg},
	{"find-many <query>", "Find every matching document", models.OperationFindMany, payloadArg},
	{"insert-one <document>", "Insert a document", models.OperationInsertOne, payloadArg},
	{"insert-many <documents>", "Insert an array of documents", models.OperationInsertMany, payloadArg},
	{"delete-one <filter>", "Delete the first matching document", models.OperationDeleteOne, payloadArg},
	{"delete-many <filter>", "Delete every matching document", models.OperationDeleteMany, payloadArg},
	{"update-one <filter> <update>", "Update the first matching document", models.OperationUpdateOne, payloadAndUpdateArgs},
	{"update-many <filter> <update>", "Update every matching document", models.OperationUpdateMany, payloadAndUpdateArgs},
	{"create-collection <name>", "Create a collection", models.OperationCreateCollection, nameArg},
	{"drop-collection <name>", "Drop a collection", models.OperationDropCollection, nameArg},
}

// NewRootCmd builds the mongotask command tree.
func NewRootCmd(newRunner RunnerFactory) *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "mongotask",
		Short:         "Run MongoDB tasks through the task bridge",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&f.database, "database", "d", "", "Database, overrides MONGODB_DATABASE")
	root.PersistentFlags().StringVarP(&f.collection, "collection", "c", "", "Collection, overrides MONGODB_COLLECTION")
	root.PersistentFlags().BoolVar(&f.failSilently, "fail-silently", false, "Ignore already-exists / not-found on create/drop collection")
	root.PersistentFlags().BoolVarP(&f.raw, "raw", "r", false, "Print compact JSON")
	root.PersistentFlags().DurationVar(&f.timeout, "timeout", 2*time.Minute, "How long to wait for the result")

	for _, tc := range taskCommands {
		root.AddCommand(newTaskCmd(tc, f, newRunner))
	}
	return root
}

func newTaskCmd(tc taskCommand, f *flags, newRunner RunnerFactory) *cobra.Command {
	nargs := 1
	if tc.kind == payloadAndUpdateArgs {
		nargs = 2
	}

	return &cobra.Command{
		Use:   tc.use,
		Short: tc.short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runTask(cmd, tc, f, newRunner, args)
			if err != nil {
				logErrorCmd(cmd, err)
			}
			return err
		},
	}
}

func runTask(cmd *cobra.Command, tc taskCommand, f *flags, newRunner RunnerFactory, args []string) error {
	taskArgs := commands.Args{
		Options: &models.Options{
			Database:     f.database,
			Collection:   f.collection,
			FailSilently: f.failSilently,
		},
	}

	switch tc.kind {
	case nameArg:
		taskArgs.Name = args[0]
	case payloadArg, payloadAndUpdateArgs:
		payload, err := parseJSONArg(args[0])
		if err != nil {
			return fmt.Errorf("invalid JSON argument: %w", err)
		}
		taskArgs.Payload = payload
		if tc.kind == payloadAndUpdateArgs {
			update, err := parseJSONArg(args[1])
			if err != nil {
				return fmt.Errorf("invalid JSON update: %w", err)
			}
			taskArgs.Update = update
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()

	runner, closeRunner, err := newRunner(ctx)
	if err != nil {
		return err
	}
	defer closeRunner()

	future, err := runner.Run(ctx, tc.op, taskArgs)
	if err != nil {
		return err
	}
	result, err := future.Await(ctx)
	if err != nil {
		return err
	}
	return logJSONCmd(cmd, f.raw, result)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"assesseez/internal/bootstrap"
	"assesseez/internal/bootstrap/logging"
	domain "assesseez/internal/domain/workflow"
	"assesseez/internal/errs"
	"assesseez/internal/infrastructure/cache"
	"assesseez/internal/ports"
	"assesseez/internal/usecase/workflow"
)

// cliEnv is what every command body receives once the fx graph is started.
type cliEnv struct {
	app      *bootstrap.App
	workflow *workflow.Service
	cache    ports.Cache
}

func withApp(run func(cmd *cobra.Command, env *cliEnv) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := logging.WithAttrs(
			cmd.Context(),
			slog.String("command", cmd.CommandPath()),
			slog.String("config_file", cfgFile),
		)

		env := &cliEnv{}
		fxApp := fx.New(
			bootstrap.Module,
			fx.NopLogger,
			fx.Provide(func() context.Context { return ctx }),
			fx.Provide(
				fx.Annotate(
					func() string { return cfgFile },
					fx.ResultTags(`name:"configFile"`),
				),
			),
			fx.Populate(&env.app, &env.workflow, &env.cache),
		)

		startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
		defer cancelStart()
		if err := fxApp.Start(startCtx); err != nil {
			logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "start fx application")
		}

		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancelStop()
			if err := fxApp.Stop(stopCtx); err != nil {
				logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
			}
		}()

		cmd.SetContext(ctx)
		if err := run(cmd, env); err != nil {
			return errs.Wrap(err, "run command")
		}
		return nil
	}
}

// request builds the caller context from the global flags, falling back to the
// business stored by `business use`.
func (e *cliEnv) request(cmd *cobra.Command, needQualification bool) (domain.RequestContext, error) {
	person := strings.TrimSpace(asPerson)
	if person == "" {
		return domain.RequestContext{}, errMissingPerson
	}
	business := strings.TrimSpace(businessID)
	if business == "" && e.cache != nil {
		stored, ok, err := e.cache.Get(cmd.Context(), cache.SelectedBusinessKey(person))
		if err != nil {
			return domain.RequestContext{}, errs.Wrap(err, "load selected business")
		}
		if ok {
			business = stored
		}
	}
	if business == "" {
		return domain.RequestContext{}, errors.New("--business is required (or run `business use`)")
	}
	req := domain.RequestContext{PersonID: person, BusinessID: business, QualificationID: strings.TrimSpace(qualificationID)}
	if needQualification && req.QualificationID == "" {
		return domain.RequestContext{}, errors.New("--qualification is required")
	}
	return req, nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, warning := range warnings {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
}

func printf(cmd *cobra.Command, format string, args ...any) error {
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...); err != nil {
		return errs.Wrap(err, "write output")
	}
	return nil
}

// fileFlags parses name=key:size triples given with --file.
func fileFlags(cmd *cobra.Command) ([]domain.FileRef, error) {
	raw, _ := cmd.Flags().GetStringSlice("file")
	files := make([]domain.FileRef, 0, len(raw))
	for _, item := range raw {
		file, err := parseFileRef(item)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func parseFileRef(raw string) (domain.FileRef, error) {
	name, rest, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return domain.FileRef{}, fmt.Errorf("file %q must look like name=storage-key[:size]", raw)
	}
	key, sizeRaw, _ := strings.Cut(rest, ":")
	var size int64
	if sizeRaw != "" {
		if _, err := fmt.Sscan(sizeRaw, &size); err != nil {
			return domain.FileRef{}, fmt.Errorf("file %q has an invalid size", raw)
		}
	}
	return domain.FileRef{Name: name, StorageKey: key, SizeBytes: size}, nil
}

var errMissingPerson = errors.New("--as is required")

func workflowRequest(person string, business string) domain.RequestContext {
	return domain.RequestContext{PersonID: person, BusinessID: business}
}

var errUnknownNode = errors.New("unknown structure node")

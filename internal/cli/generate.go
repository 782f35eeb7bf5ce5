package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/koustreak/catalogts/internal/config"
	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/filestore/minio"
	"github.com/koustreak/catalogts/internal/generator"
	"github.com/koustreak/catalogts/internal/logger"
	"github.com/koustreak/catalogts/internal/output"
)

type generateFlags struct {
	out         string
	bucket      string
	prefix      string
	stdout      bool
	concurrency int
}

func newGenerateCmd(g *globalFlags) *cobra.Command {
	gf := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one TypeScript module per schema",
		Long: `Reads every non-system schema and writes <schema>.ts plus the shared
_types.ts into a directory (--out) or an object store bucket (--bucket).
Nothing is written when any catalog query fails.`,
		Example: `  catalogts generate --user root --database shop --out ./types
  catalogts generate --driver postgres --database app --schema public --stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			gf.apply(cmd, cfg)

			if gf.stdout {
				err = cfg.ValidateConnection()
			} else {
				err = cfg.Validate()
			}
			if err != nil {
				return err
			}

			log := newRunLogger(cfg)
			if err := runGenerate(cmd.Context(), cfg, gf.stdout, cmd.OutOrStdout(), log); err != nil {
				log.ErrorWith("generation failed", err, map[string]interface{}{"kind": errs.KindOf(err).String()})
				return loggedError{err}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&gf.out, "out", "o", "", "output directory (env: CATALOGTS_OUT)")
	f.StringVar(&gf.bucket, "bucket", "", "upload to this object store bucket instead of a directory")
	f.StringVar(&gf.prefix, "prefix", "", "object key prefix used with --bucket")
	f.BoolVar(&gf.stdout, "stdout", false, "print modules to stdout instead of writing them")
	f.IntVar(&gf.concurrency, "concurrency", 4, "maximum parallel writes")
	return cmd
}

func (gf *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("out") {
		cfg.Output.Dir = gf.out
	}
	if changed("bucket") {
		cfg.Output.Bucket = gf.bucket
	}
	if changed("prefix") {
		cfg.Output.Prefix = gf.prefix
	}
	if changed("concurrency") {
		cfg.Output.Concurrency = gf.concurrency
	}
}

func runGenerate(ctx context.Context, cfg *config.Config, toStdout bool, stdout io.Writer, log *logger.Logger) error {
	db, reader, mapper, err := openCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	outs, err := generator.New(reader, mapper, log, generator.Options{Schemas: cfg.Schemas}).Run(ctx)
	if err != nil {
		return err
	}

	if toStdout {
		for _, o := range outs {
			if _, err := fmt.Fprintf(stdout, "// %s%s\n%s\n", o.Name, output.Ext, o.Body); err != nil {
				return err
			}
		}
		return nil
	}

	sink, location, err := newSink(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := output.WriteAll(ctx, sink, outs, cfg.Output.Concurrency); err != nil {
		return err
	}

	log.InfoWith("generation complete", map[string]interface{}{
		"modules":  len(outs),
		"location": location,
	})
	return nil
}

// newSink picks the bucket when one is configured, the directory otherwise.
func newSink(ctx context.Context, cfg *config.Config, log *logger.Logger) (output.Sink, string, error) {
	if cfg.Output.Bucket != "" {
		store, err := minio.New(ctx, cfg.StoreConfig())
		if err != nil {
			return nil, "", fmt.Errorf("connect object store: %w", err)
		}
		sink, err := output.NewStoreSink(ctx, store, cfg.Output.Bucket, cfg.Output.Prefix, log)
		if err != nil {
			return nil, "", err
		}
		return sink, "s3://" + cfg.Output.Bucket + "/" + cfg.Output.Prefix, nil
	}

	sink, err := output.NewDirSink(cfg.Output.Dir)
	if err != nil {
		return nil, "", err
	}
	return sink, cfg.Output.Dir, nil
}

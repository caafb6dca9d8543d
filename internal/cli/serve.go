package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/choropleth/internal/metrics"
	"github.com/matzehuels/choropleth/internal/server"
	"github.com/matzehuels/choropleth/pkg/config"
	"github.com/matzehuels/choropleth/pkg/session"
)

// serveCommand creates the serve command, which exposes descriptors,
// legends and hover sessions over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var in inputOpts
	var addr, sessionsDir string
	var noMetrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve descriptors, legends and hover sessions over HTTP",
		Example: `  choropleth serve --sample
  choropleth serve --data states.json --boundaries india.topo.json --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := c.loadInputs(cmd, &in)
			if err != nil {
				return err
			}
			defer loaded.close()

			if cmd.Flags().Changed("addr") {
				loaded.cfg.Server.Addr = addr
				if err := loaded.cfg.Validate(); err != nil {
					return err
				}
			}

			var sessions session.Store = session.NewMemoryStore()
			if sessionsDir != "" {
				fs, err := session.NewFileStore(sessionsDir)
				if err != nil {
					return err
				}
				sessions = fs
			}

			var m *metrics.Metrics
			if !noMetrics {
				m = metrics.New()
				m.Install()
			}

			srv, err := server.New(server.Config{
				Dataset:  loaded.ds,
				Features: loaded.fs,
				Options:  loaded.options(c),
				Runner:   loaded.runner,
				Sessions: sessions,
				Metrics:  m,
				Logger:   c.Logger,
			})
			if err != nil {
				return err
			}

			printSuccess(c.Out, "Serving %d features on %s", loaded.fs.Len(), loaded.cfg.Server.Addr)
			return srv.ListenAndServe(cmd.Context(), loaded.cfg.Server.Addr)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+config.DefaultServerAddr+")")
	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "keep hover sessions as files in this directory (default: in memory)")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

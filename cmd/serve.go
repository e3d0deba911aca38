package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/psychometric/internal/analysis"
	"github.com/abhisek/psychometric/internal/llm"
	"github.com/abhisek/psychometric/internal/metrics"
	"github.com/abhisek/psychometric/internal/persist"
	"github.com/abhisek/psychometric/internal/questiongen"
	"github.com/abhisek/psychometric/internal/server"
	"github.com/abhisek/psychometric/internal/session"
	"github.com/abhisek/psychometric/internal/speech"
	"github.com/abhisek/psychometric/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		kv, closeKV, err := openKV(ctx, st)
		if err != nil {
			return err
		}
		defer closeKV()

		m := metrics.New()
		deps := session.Deps{
			KV:           kv,
			Bank:         persist.NewBank(kv),
			Events:       st.EventRepo(),
			Observer:     m,
			QueueSize:    cfg.Assessment.QueueSize,
			DefaultVoice: cfg.Voice(),
		}
		if err := wireAI(cmd, st, m, &deps); err != nil {
			return err
		}

		if !strings.EqualFold(cfg.Log.Level, "debug") {
			gin.SetMode(gin.ReleaseMode)
		}
		sessions, err := session.NewRegistry(deps, session.WithCapacity(cfg.Assessment.MaxSessions))
		if err != nil {
			return err
		}
		srv := server.New(server.Options{
			Sessions:    sessions,
			Bank:        deps.Bank,
			Metrics:     m,
			Logger:      slog.Default(),
			CORSOrigins: cfg.Server.CORSOrigins,
		})

		err = srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		slog.Info("server stopped")
		return err
	},
}

// wireAI fills the AI collaborators of deps. A missing provider is not
// fatal; the questionnaire still works from the built-in questions.
func wireAI(cmd *cobra.Command, st *store.Store, m *metrics.Metrics, deps *session.Deps) error {
	ctx := cmd.Context()
	lcfg, err := llmConfig()
	if err != nil {
		slog.Warn("LLM provider not configured, AI features will be unavailable", "error", err)
		return nil
	}

	provider, err := llm.NewProvider(ctx, lcfg, st.EventRepo(), m)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	deps.Generator = questiongen.New(provider, questiongen.DefaultConfig())

	acfg := analysis.DefaultConfig()
	acfg.Model = cfg.Assessment.AnalysisModel
	deps.Analyzer = analysis.New(provider, acfg)

	if !lcfg.SupportsSpeech() {
		slog.Warn("voice features need the gemini provider", "provider", lcfg.Provider)
		return nil
	}
	deps.Interpreter = speech.NewInterpreter(provider)

	sp, err := llm.NewSpeechProvider(ctx, lcfg, st.EventRepo(), m)
	if err != nil {
		return fmt.Errorf("speech provider: %w", err)
	}
	synth, err := speech.NewSynthesizer(sp, cfg.Assessment.SpeechCacheSize, speech.WithCacheObserver(m))
	if err != nil {
		return fmt.Errorf("speech cache: %w", err)
	}
	deps.Speaker = synth

	slog.Info("AI provider ready", "provider", lcfg.Provider, "model", provider.ModelID())
	return nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	cli "github.com/spf13/pflag"

	log "log/slog"

	"aria/internal/assistant"
	"aria/internal/audio"
	"aria/internal/config"
	"aria/internal/console"
	"aria/internal/dispatch"
	"aria/internal/handlers"
	"aria/internal/ipc"
	"aria/internal/llm"
	"aria/internal/logging"
	"aria/internal/notify"
	"aria/internal/proxy"
	"aria/internal/scrape"
	"aria/internal/speech"
	"aria/internal/tts"
	"aria/pkg/stt"
)

// heardPublisher mirrors every recognized command (sentinels excluded)
// to the websocket console.
type heardPublisher struct {
	inner *speech.Listener
	cons  *console.Server
}

func (h heardPublisher) Listen(ctx context.Context) string {
	text := h.inner.Listen(ctx)
	if text != "" && !speech.IsSentinel(text) {
		h.cons.Publish("heard", text)
	}
	return text
}

func main() {
	configPath := cli.StringP("config", "c", "config.toml", "Config file path")
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	proxyAddr := cli.StringP("proxy", "p", "", "SOCKS5 proxy address (empty = direct)")
	cli.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	closeLog, err := logging.Setup(*logLevel, cfg.General.LogFile)
	if err != nil {
		log.Error("Failed to set up logging", "err", err)
		os.Exit(1)
	}
	defer closeLog()

	log.Info("Booting up", "assistant", cfg.General.AssistantName)

	var httpClient *http.Client
	if *proxyAddr != "" {
		if httpClient, err = proxy.NewSocksClient(*proxyAddr); err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy")
	} else if cfg.Net.SocksProxy != "" {
		if httpClient, err = proxy.NewSocksClient(cfg.Net.SocksProxy); err != nil {
			log.Error("Failed to dial socks proxy", "proxy", cfg.Net.SocksProxy, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy")
	}

	ctrl := assistant.New(nil, nil, nil, cfg.General.UserName, cfg.General.AssistantName)

	engine := tts.NewEspeak(cfg.Speech.Language, 175)
	speaker := tts.NewSpeaker(cfg.General.AssistantName, engine, ctrl.ShuttingDown())

	var cons *console.Server
	if cfg.Net.ConsoleAddr != "" {
		if cons, err = console.Start(cfg.Net.ConsoleAddr); err != nil {
			log.Error("Failed to start console", "addr", cfg.Net.ConsoleAddr, "err", err)
			os.Exit(1)
		}
		defer cons.Close()
		speaker.OnSay(func(kind, text string) { cons.Publish(kind, text) })
	}

	var chat *llm.Client
	if cfg.LLMEnabled() {
		chat = llm.New(llm.Config{
			APIKey:        cfg.Keys.LLM,
			BaseURL:       cfg.LLM.BaseURL,
			Model:         cfg.LLM.Model,
			MaxTokens:     cfg.LLM.MaxTokens,
			Temperature:   cfg.LLM.Temperature,
			AssistantName: cfg.General.AssistantName,
			UserName:      cfg.General.UserName,
			HTTPClient:    httpClient,
		})
		log.Debug("Loaded LLM client", "model", cfg.LLM.Model)
	} else {
		log.Warn("LLM_API_KEY not set, chat fallback and summarization disabled")
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()
	log.Debug("Loaded recorder")

	whisper, err := stt.NewTranscriber(cfg.Speech.ModelPath)
	if err != nil {
		log.Error("Failed to init whisper", "model", cfg.Speech.ModelPath, "err", err)
		os.Exit(1)
	}
	defer whisper.Close()
	log.Debug("Loaded whisper")

	var chime func()
	if cfg.Audio.ChimeFile != "" {
		chime = func() {
			if err := notify.Chime(cfg.Audio.ChimeFile); err != nil {
				log.Warn("Chime failed", "err", err)
			}
		}
	}

	var duck func(ctx context.Context) func()
	if cfg.Audio.Duck {
		ducker := audio.NewDucker([]string{cfg.General.AssistantName}, 20)
		duck = func(ctx context.Context) func() {
			if err := ducker.Duck(ctx, cfg.Audio.DuckFactor, 200*time.Millisecond); err != nil {
				log.Warn("Duck failed", "err", err)
			}
			return func() {
				if err := ducker.Restore(ctx, 200*time.Millisecond); err != nil {
					log.Warn("Restore failed", "err", err)
				}
			}
		}
	}

	listener := speech.NewListener(speech.ListenerConfig{
		Capturer:    rec,
		Transcriber: whisper,
		Params: audio.CaptureParams{
			Calibration:  500 * time.Millisecond,
			OnsetTimeout: cfg.MicTimeout(),
			PhraseLimit:  cfg.PhraseLimit(),
			Pause:        cfg.PauseThreshold(),
		},
		Language:     cfg.Speech.Language,
		Chime:        chime,
		Duck:         duck,
		ShuttingDown: ctrl.ShuttingDown(),
	})

	pipeline := &scrape.Pipeline{
		Launch: func(ctx context.Context) (scrape.Browser, error) {
			return scrape.NewSession(ctx, cfg.Scrape.Headless, cfg.ScrapeTimeout())
		},
		Track:    ctrl.TrackSession,
		Voice:    speaker,
		MaxChars: cfg.Scrape.MaxChars,
	}
	if chat != nil {
		pipeline.Chat = chat
	}

	hs := handlers.NewSet(cfg, speaker, httpClient, listener.Listen)

	routes := dispatch.Routes(dispatch.Handlers{
		Greeting:     hs.Greeting,
		Status:       hs.Status,
		PersonalInfo: hs.PersonalInfo,
		SystemInfo:   hs.SystemInfo,
		Time:         hs.Time,
		Date:         hs.Date,
		Weather:      hs.Weather,
		Wikipedia:    hs.Wikipedia,
		Joke:         hs.Joke,
		Summarize: func(ctx context.Context, cmd string) error {
			keyword := strings.TrimSpace(strings.Replace(cmd, "search about", "", 1))
			return pipeline.Run(ctx, keyword)
		},
		WebSearch: hs.WebSearch,
		Open:      hs.Open,
		TakeNote:  hs.TakeNote,
		Exit:      ctrl.Exit,
	})

	var chatter dispatch.Chatter
	if chat != nil {
		chatter = chat
	}
	disp := dispatch.New(routes, speaker, chatter)

	var loopListener assistant.Listener = listener
	if cons != nil {
		loopListener = heardPublisher{listener, cons}
	}
	ctrl.Bind(loopListener, disp, speaker)

	ctx := context.Background()

	ctl, err := ipc.StartServer(cfg.Net.SocketPath, func(msg ipc.ControlMessage) string {
		switch msg.Cmd {
		case "inject":
			disp.Dispatch(ctx, strings.ToLower(msg.Arg))
			return "ok"
		case "transcribe":
			text := listener.ListenFile(ctx, msg.Arg)
			disp.Dispatch(ctx, text)
			return text
		case "shutdown":
			ctrl.BeginShutdown()
			return "shutting down"
		default:
			log.Warn("Unknown control command", "cmd", msg.Cmd)
			return "unknown command"
		}
	})
	if err != nil {
		log.Error("Failed to start control socket", "err", err)
		os.Exit(1)
	}
	defer ctl.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn("Received signal, initiating graceful shutdown", "signal", sig)
		ctrl.BeginShutdown()
		// force-release any browser session a handler still holds
		ctrl.Cleanup()
	}()

	log.Info("Boot up - successful")
	ctrl.Run(ctx)
}

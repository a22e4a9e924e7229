package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"piano-relay-server/config"
	"piano-relay-server/hub"
	"piano-relay-server/instrument"
	"piano-relay-server/logging"
	"piano-relay-server/metrics"
	"piano-relay-server/protocol"
	"piano-relay-server/relay"
	"piano-relay-server/session"
	ws "piano-relay-server/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer logger.Sync()

	codec, err := protocol.NewCodec(cfg.Relay.Encoding)
	if err != nil {
		logger.Fatal("select codec", zap.Error(err))
	}

	m := metrics.New(prometheus.NewRegistry())
	rooms := hub.New(cfg.Room.Capacity, logger.Named("hub"), m)
	engine := relay.New(
		rooms,
		codec,
		session.NewHuePicker(cfg.Color.ReservedHue, cfg.Color.Tolerance),
		relay.Options{RateLimit: cfg.Relay.RateLimit, RateBurst: cfg.Relay.RateBurst},
		logger.Named("relay"),
		m,
	)
	wsHandler := ws.NewHandler(engine, ws.Options{
		SendBuffer:     cfg.WS.SendBuffer,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		WriteWait:      cfg.WS.WriteWait,
		PongWait:       cfg.WS.PongWait,
		Binary:         codec.Binary(),
	}, cfg.CORS.AllowedOrigins, logger.Named("websocket"))

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: newRouter(rooms, wsHandler, m, logger),
	}

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr), zap.String("encoding", codec.Name()))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	rooms.Close()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func newRouter(rooms *hub.Hub, wsHandler http.Handler, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)

	r.Handle("/ws", wsHandler)
	r.Get("/health", healthHandler)
	r.Get("/stats", statsHandler(rooms))
	r.Get("/instruments", instrumentsHandler)
	r.Handle("/metrics", m.Handler())
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("requestId", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type statsResponse struct {
	Rooms   int            `json:"rooms"`
	Clients int            `json:"clients"`
	Detail  []hub.RoomStat `json:"roomList"`
}

func statsHandler(rooms *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail := rooms.Rooms()
		resp := statsResponse{Rooms: len(detail), Detail: detail}
		for _, st := range detail {
			resp.Clients += st.Clients
		}
		writeJSON(w, resp)
	}
}

func instrumentsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"default": instrument.Default, "instruments": instrument.Names()})
}

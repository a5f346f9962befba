package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/nadirk/chatwire/internal/call"
	"github.com/nadirk/chatwire/internal/protocol"
	"github.com/nadirk/chatwire/internal/router"
	"github.com/nadirk/chatwire/internal/server/middleware"
	"github.com/nadirk/chatwire/pkg/config"
	"github.com/nadirk/chatwire/pkg/state"
	"github.com/nadirk/chatwire/pkg/state/statemanager"
	"github.com/nadirk/chatwire/pkg/transport"
)

type App struct {
	logger       *slog.Logger
	stateManager state.Manager
	eventRouter  *router.EventRouter
	callManager  *call.Manager
	wg           sync.WaitGroup
	http         *http.Server
	config       *config.Config

	ctx context.Context
}

// NewApp wires the presence registry, event router and call manager together
// behind a single /ws endpoint. The registries live exactly as long as the
// process: nothing here survives a restart, clients rebuild presence state by
// reconnecting.
func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, participants router.ParticipantSource) *App {
	stateManager := statemanager.NewInMemoryManager(logger)
	eventRouter := router.NewEventRouter(logger, stateManager)
	callManager := call.NewManager(logger, eventRouter)
	eventRouter.SetCallManager(callManager)
	if cfg.Rooms.EnforceMembership {
		eventRouter.EnforceMembership(participants)
	}

	app := &App{
		logger:       logger,
		stateManager: stateManager,
		eventRouter:  eventRouter,
		callManager:  callManager,
		config:       cfg,
		ctx:          rootCtx,
	}

	mux := http.NewServeMux()
	mux.Handle("/ws",
		middleware.Chain(http.HandlerFunc(app.upgradeHandler),
			middleware.RequestMetadataMiddleware(),
			middleware.NewRequestLogger(app.logger),
			middleware.NewAuthMiddleware(logger, cfg.Server.Auth.JWTSecret),
		),
	)

	app.http = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}
	return app
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, ok := middleware.ReqMetadataFrom(r.Context())
	if !ok || reqMeta.UserID == "" {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	connLogger := a.logger.With(
		slog.String("remoteAddr", reqMeta.IP),
		slog.String("userID", reqMeta.UserID),
	)

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig(a.config.Transport),
		a.logger,
	)

	// Handlers go on before registration so the cleanup path is in place for
	// every registered connection, whichever later step fails.
	conn.SetOnMessageHandler(a.eventRouter.HandleMessage)
	conn.SetOnCloseHandler(a.handleClose)

	if _, err := a.stateManager.RegisterConnection(conn.ID(), conn, reqMeta.IP); err != nil {
		connLogger.Error("Failed to register connection state", slog.Any("error", err))
		conn.Close(err)
		return
	}

	// Last-connected-wins: a second connection for the same user takes over
	// the presence entry and the older socket is closed.
	superseded, err := a.stateManager.BindUser(conn.ID(), reqMeta.UserID)
	if err != nil {
		connLogger.Error("Failed to bind user to connection", slog.Any("error", err))
		conn.Close(err)
		return
	}
	if superseded != nil {
		connLogger.Info("Closing superseded connection", slog.String("oldConnID", superseded.ID.String()))
		superseded.Transport.Close(errors.New("superseded by newer connection"))
	}

	a.announcePresence(conn, reqMeta.UserID)

	connLogger.Info("User connection fully established")
	conn.Run()
	<-conn.Done()
}

// announcePresence tells everyone (including the new connection, simplicity
// over optimization) that the user is online, and hands the new connection a
// snapshot of who is online so clients bootstrap presence without waiting for
// deltas.
func (a *App) announcePresence(sink state.Sink, userID string) {
	a.eventRouter.BroadcastAll(protocol.EventUserOnline, protocol.UserOnline{UserID: userID})

	snapshot, err := protocol.Encode(protocol.EventOnlineUsersList, protocol.OnlineUsersList{
		UserIDs: a.stateManager.OnlineUsers(),
	})
	if err != nil {
		a.logger.Error("Failed to encode presence snapshot", slog.Any("error", err))
		return
	}
	sink.Send(snapshot)
}

// handleClose is the unconditional disconnect cleanup: room membership and
// presence removal, implicit call termination, offline broadcast. Skipping
// any part of it leaks state, so everything hangs off this one callback.
func (a *App) handleClose(connID uuid.UUID, err error) {
	userID, wentOffline := a.stateManager.DeregisterConnection(connID)
	if userID == "" || !wentOffline {
		// never authenticated, or superseded by a newer connection that is
		// still alive; the user is not offline
		return
	}

	a.callManager.Drop(userID)
	a.eventRouter.BroadcastAll(protocol.EventUserOffline, protocol.UserOffline{UserID: userID})
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("Closing all active connections...")
	for _, conn := range a.stateManager.Connections() {
		conn.Transport.Close(errors.New("graceful shutdown"))
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}

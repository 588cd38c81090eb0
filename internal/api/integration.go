package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// HTTPServer запускает RestServer и корректно его останавливает
type HTTPServer struct {
	restServer *RestServer
	httpServer *http.Server
	listener   net.Listener
	done       chan error
}

// NewHTTPServer создаёт сервер; слушать начинает Start
func NewHTTPServer(rs *RestServer) *HTTPServer {
	return &HTTPServer{
		restServer: rs,
		httpServer: &http.Server{
			Addr:              rs.Addr(),
			Handler:           rs.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		done: make(chan error, 1),
	}
}

// Start открывает порт и обслуживает запросы в отдельной горутине
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("не удалось открыть %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.restServer.logger.Error("❌ Ошибка REST API сервера: %v", err)
		}
		s.done <- err
	}()

	s.restServer.logger.Info("✅ REST API сервер запущен на http://%s", ln.Addr())
	return nil
}

// Addr возвращает фактический адрес (после Start)
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Done отдаёт результат Serve после остановки сервера
func (s *HTTPServer) Done() <-chan error {
	return s.done
}

// Stop останавливает сервер, дожидаясь завершения текущих запросов
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.restServer.logger.Info("🛑 Остановка REST API сервера...")

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("остановка HTTP сервера: %w", err)
	}
	return nil
}

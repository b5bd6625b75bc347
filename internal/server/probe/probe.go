// Package probe serves the gRPC health protocol for the board server and keeps
// each dependency's serving status current.
package probe

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Probe is a gRPC server exposing grpc.health.v1.
type Probe struct {
	log    *zap.Logger
	srv    *grpc.Server
	hs     *health.Server
	mu     sync.Mutex
	checks map[string]Check
}

// New builds the probe server. reflect registers server reflection.
func New(log *zap.Logger, reflect bool, opts ...grpc.ServerOption) *Probe {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("probe")
	opts = append(opts, grpc.ChainUnaryInterceptor(unaryObserver(log)), grpc.ChainStreamInterceptor(streamObserver(log)))
	p := &Probe{
		log:    log,
		srv:    grpc.NewServer(opts...),
		hs:     health.NewServer(),
		checks: map[string]Check{},
	}
	healthpb.RegisterHealthServer(p.srv, p.hs)
	if reflect {
		reflection.Register(p.srv)
	}
	return p
}

// AddCheck registers a named dependency check. The service starts NOT_SERVING
// until the first Refresh.
func (p *Probe) AddCheck(service string, c Check) {
	p.mu.Lock()
	p.checks[service] = c
	p.mu.Unlock()
	p.hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
}

// Refresh runs every check once and updates the statuses. The overall
// status ("") is SERVING only when every check passes.
func (p *Probe) Refresh(ctx context.Context, timeout time.Duration) {
	p.mu.Lock()
	names := make([]string, 0, len(p.checks))
	for n := range p.checks {
		names = append(names, n)
	}
	checks := make(map[string]Check, len(p.checks))
	for n, c := range p.checks {
		checks[n] = c
	}
	p.mu.Unlock()
	sort.Strings(names)

	all := healthpb.HealthCheckResponse_SERVING
	for _, n := range names {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := checks[n](cctx)
		cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			p.log.Warn("check failed", zap.String("service", n), zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
			all = st
		}
		p.hs.SetServingStatus(n, st)
	}
	p.hs.SetServingStatus("", all)
}

// Watch refreshes on every tick until ctx is done.
func (p *Probe) Watch(ctx context.Context, every time.Duration) {
	p.Refresh(ctx, every)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Refresh(ctx, every)
		}
	}
}

// Serve blocks serving lis.
func (p *Probe) Serve(lis net.Listener) error { return p.srv.Serve(lis) }

// Stop marks everything NOT_SERVING and stops, forcing after timeout.
func (p *Probe) Stop(timeout time.Duration) {
	p.hs.Shutdown()
	done := make(chan struct{})
	go func() {
		p.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		p.srv.Stop()
	}
}

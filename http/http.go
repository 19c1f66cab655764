// Package http supplies the admin http service
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	c "github.com/d0ngw/counter/common"
	"golang.org/x/net/netutil"
)

// DefaultShutdownTimeout bounds the wait for requests in flight on Stop
const DefaultShutdownTimeout = 5 * time.Second

// Config the admin http config,handlers are registered before the service inits
type Config struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ShutdownTimeout DefaultShutdownTimeout when 0
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxConns limits the accepted connections,0 is unlimited
	MaxConns int `yaml:"max_conns"`

	routes   map[string]http.Handler
	routesMu sync.Mutex
}

// NewConfig create the config listening on addr
func NewConfig(addr string) *Config {
	return &Config{Addr: addr}
}

// Parse implements common.Configurer
func (p *Config) Parse() error {
	if p.Addr == "" {
		return errors.New("http needs addr")
	}
	if p.MaxConns < 0 {
		return fmt.Errorf("invalid max_conns %d", p.MaxConns)
	}
	return nil
}

// RegHandler register handler at pattern,a pattern can be registered once
func (p *Config) RegHandler(pattern string, handler http.Handler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for %s", pattern)
	}
	p.routesMu.Lock()
	defer p.routesMu.Unlock()
	if p.routes == nil {
		p.routes = map[string]http.Handler{}
	}
	if _, ok := p.routes[pattern]; ok {
		return fmt.Errorf("duplicate handler for %s", pattern)
	}
	p.routes[pattern] = handler
	return nil
}

// RegHandleFunc register fn at pattern
func (p *Config) RegHandleFunc(pattern string, fn http.HandlerFunc) error {
	if fn == nil {
		return fmt.Errorf("nil handler for %s", pattern)
	}
	return p.RegHandler(pattern, fn)
}

func (p *Config) mux() *http.ServeMux {
	p.routesMu.Lock()
	defer p.routesMu.Unlock()
	mux := http.NewServeMux()
	for pattern, handler := range p.routes {
		mux.Handle(pattern, handler)
	}
	return mux
}

// Service serves the registered handlers,Stop waits for the requests in
// flight up to the shutdown timeout
type Service struct {
	c.BaseService
	Conf *Config

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	done     chan struct{}
}

// NewService create the http service
func NewService(name string, conf *Config) *Service {
	return &Service{BaseService: c.BaseService{SName: name}, Conf: conf}
}

// Init implements Initable.Init
func (p *Service) Init() error {
	if p.Conf == nil {
		return errors.New("no http config")
	}
	if err := p.Conf.Parse(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.server = &http.Server{
		Addr:         p.Conf.Addr,
		Handler:      p.Conf.mux(),
		ReadTimeout:  p.Conf.ReadTimeout,
		WriteTimeout: p.Conf.WriteTimeout,
	}
	return nil
}

// Start listen and serve in background
func (p *Service) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	lc := net.ListenConfig{KeepAlive: 3 * time.Minute}
	ln, err := lc.Listen(context.Background(), "tcp", p.Conf.Addr)
	if err != nil {
		c.Errorf("listen at %s fail,err:%v", p.Conf.Addr, err)
		return false
	}
	if p.Conf.MaxConns > 0 {
		ln = netutil.LimitListener(ln, p.Conf.MaxConns)
	}
	p.listener = ln
	p.done = make(chan struct{})
	c.Infof("%s listen at %s", p.Name(), ln.Addr())

	go func(server *http.Server, done chan struct{}) {
		defer close(done)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.Errorf("%s serve fail,err:%v", p.Name(), err)
		}
	}(p.server, p.done)
	return true
}

// Addr the listening address,nil when not started
func (p *Service) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Stop implements Service.Stop
func (p *Service) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return true
	}

	timeout := p.Conf.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ok := true
	if err := p.server.Shutdown(ctx); err != nil {
		c.Warnf("%s shutdown,err:%v", p.Name(), err)
		ok = p.server.Close() == nil
	}
	<-p.done
	p.listener = nil
	c.Infof("%s stopped", p.Name())
	return ok
}

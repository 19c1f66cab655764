package common

import (
	"hash/fnv"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"sync"
	"syscall"
)

// HasNil reports whether any of the params is nil,typed nil pointers included
func HasNil(params ...interface{}) bool {
	for _, p := range params {
		if p == nil {
			return true
		}
		v := reflect.ValueOf(p)
		switch v.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
			if v.IsNil() {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether any of the strings is blank
func IsEmpty(strs ...string) bool {
	for _, s := range strs {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// Fnv32Hashcode the fnv32 hash of s as non negative int
func Fnv32Hashcode(s string) int {
	h := fnv.New32()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffffff)
}

// Shutdownhook runs hooks when the process receives a stop signal
type Shutdownhook struct {
	ch    chan os.Signal
	hooks []func()
	sync.Mutex
}

// NewShutdownhook create a Shutdownhook listening on sig,SIGINT and SIGTERM by default
func NewShutdownhook(sig ...os.Signal) *Shutdownhook {
	if len(sig) == 0 {
		sig = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, len(sig))
	signal.Notify(ch, sig...)
	return &Shutdownhook{ch: ch}
}

// AddHook add a hook,hooks run in the added order
func (p *Shutdownhook) AddHook(hookFunc func()) {
	p.Lock()
	defer p.Unlock()
	p.hooks = append(p.hooks, hookFunc)
}

// WaitShutdown blocks until a stop signal arrives,then runs the hooks
func (p *Shutdownhook) WaitShutdown() {
	p.Lock()
	ch := p.ch
	p.Unlock()

	if ch == nil {
		panic("signal channel is nil")
	}

	s, ok := <-ch
	if !ok {
		Warnf("Receive signal error,%v", ok)
		return
	}

	p.Lock()
	defer p.Unlock()
	signal.Stop(p.ch)
	p.ch = nil

	Infof("Receive signal:%v,Run hooks", s)
	for _, f := range p.hooks {
		f()
	}
	Infof("Finished run hooks")
}

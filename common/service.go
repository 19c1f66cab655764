package common

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// ServiceState the lifecycle state of a service
type ServiceState uint32

// Service states in lifecycle order
const (
	NEW ServiceState = iota
	INITED
	STARTING
	RUNNING
	STOPPING
	TERMINATED
	FAILED
)

var serviceStateNames = [...]string{"NEW", "INITED", "STARTING", "RUNNING", "STOPPING", "TERMINATED", "FAILED"}

func (p ServiceState) String() string {
	if int(p) < len(serviceStateNames) {
		return serviceStateNames[p]
	}
	return fmt.Sprintf("ServiceState(%d)", uint32(p))
}

func bit(states ...ServiceState) (mask uint32) {
	for _, s := range states {
		mask |= 1 << s
	}
	return
}

// serviceTransitions the states reachable from each state,TERMINATED and FAILED are final
var serviceTransitions = [...]uint32{
	NEW:      bit(INITED, FAILED, TERMINATED),
	INITED:   bit(STARTING, FAILED, TERMINATED),
	STARTING: bit(RUNNING, FAILED, TERMINATED),
	RUNNING:  bit(STOPPING, FAILED, TERMINATED),
	STOPPING: bit(TERMINATED, FAILED),
}

// IsValidServiceState checks the transfer from -> to
func IsValidServiceState(from, to ServiceState) bool {
	return int(from) < len(serviceTransitions) && serviceTransitions[from]&bit(to) != 0
}

// Initable needs init
type Initable interface {
	// Init returns the reason when init fails
	Init() error
}

// Service is a component with a managed lifecycle.
// Services start by ascending StartOrder and stop in reverse.
type Service interface {
	Initable
	Name() string
	Start() bool
	Stop() bool
	StartOrder() int
	State() ServiceState
	transfer(to ServiceState) bool
}

// BaseService implements the bookkeeping of Service,embed it and override
// Init,Start and Stop
type BaseService struct {
	SName string
	Order int
	state atomic.Uint32
}

// Name the service name
func (p *BaseService) Name() string { return p.SName }

// Init does nothing
func (p *BaseService) Init() error { return nil }

// Start does nothing
func (p *BaseService) Start() bool { return true }

// Stop does nothing
func (p *BaseService) Stop() bool { return true }

// StartOrder the Order field
func (p *BaseService) StartOrder() int { return p.Order }

// State the current state
func (p *BaseService) State() ServiceState {
	return ServiceState(p.state.Load())
}

func (p *BaseService) transfer(to ServiceState) bool {
	for {
		from := p.State()
		if !IsValidServiceState(from, to) {
			Errorf("invalid state transfer %s->%s,%s", from, to, p.Name())
			return false
		}
		if p.state.CompareAndSwap(uint32(from), uint32(to)) {
			return true
		}
	}
}

// ServiceName the printable name of service
func ServiceName(service Service) string {
	if service.Name() == "" {
		return fmt.Sprintf("%T", service)
	}
	return fmt.Sprintf("%T#%s", service, service.Name())
}

// step transfers service to via,runs fn and lands on target when fn succeeds,on FAILED otherwise
func step(service Service, op string, via, target ServiceState, fn func() bool) bool {
	if via != target && !service.transfer(via) {
		return false
	}
	if fn() && service.transfer(target) {
		return true
	}
	Errorf("%s %s fail", op, ServiceName(service))
	service.transfer(FAILED)
	return false
}

// ServiceInit init the service once
func ServiceInit(service Service) bool {
	if service.State() == INITED {
		return true
	}
	return step(service, "init", INITED, INITED, func() bool {
		if err := service.Init(); err != nil {
			Errorf("init %s,err:%v", ServiceName(service), err)
			return false
		}
		return true
	})
}

// ServiceStart start the service
func ServiceStart(service Service) bool {
	return step(service, "start", STARTING, RUNNING, service.Start)
}

// ServiceStop stop the service
func ServiceStop(service Service) bool {
	return step(service, "stop", STOPPING, TERMINATED, service.Stop)
}

// Services a group of services managed together
type Services struct {
	services []Service
}

// NewServices create the service group ordered by StartOrder
func NewServices(services ...Service) *Services {
	sorted := append([]Service(nil), services...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartOrder() < sorted[j].StartOrder()
	})
	return &Services{services: sorted}
}

// Init init all services in start order
func (p *Services) Init() bool {
	for _, service := range p.services {
		if !ServiceInit(service) {
			return false
		}
	}
	return true
}

// Start start all services in start order,when one fails the started ones are stopped
func (p *Services) Start() bool {
	for _, service := range p.services {
		if !ServiceStart(service) {
			p.Stop()
			return false
		}
	}
	return true
}

// Stop stop the running services in reverse start order
func (p *Services) Stop() bool {
	ok := true
	for i := len(p.services) - 1; i >= 0; i-- {
		service := p.services[i]
		if service.State() != RUNNING {
			continue
		}
		if !ServiceStop(service) {
			ok = false
		}
	}
	return ok
}

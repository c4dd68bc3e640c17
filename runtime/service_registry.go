// Package runtime manages the lifecycle of the long running services of a
// gadget node.
package runtime

import (
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

var (
	// ErrServiceExists is returned when a service of the same type is
	// registered twice.
	ErrServiceExists = errors.New("service already exists")
	// ErrUnknownService is returned when fetching a type that was never
	// registered.
	ErrUnknownService = errors.New("unknown service")
	// ErrNotPointer is returned when FetchService is handed a value.
	ErrNotPointer = errors.New("input must be of pointer type")
)

// Service is anything the node starts and stops as a unit.
type Service interface {
	// Start spawns any goroutines required by the service.
	Start()
	// Stop terminates all goroutines belonging to the service,
	// blocking until they are all terminated.
	Stop() error
	// Status returns error if the service is not considered healthy.
	Status() error
}

// ServiceRegistry keeps one instance per service type, in registration order.
type ServiceRegistry struct {
	services     map[reflect.Type]Service
	serviceTypes []reflect.Type
}

// NewServiceRegistry returns an empty registry.
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}
}

// StartAll starts each service in order of registration.
func (s *ServiceRegistry) StartAll() {
	log.WithField("count", len(s.serviceTypes)).Debug("Starting services")
	for _, kind := range s.serviceTypes {
		log.WithField("type", kind.String()).Debug("Starting service")
		go s.services[kind].Start()
	}
}

// StopAll stops every service in reverse order of registration. Failures are
// logged and do not prevent the remaining services from stopping.
func (s *ServiceRegistry) StopAll() {
	for i := len(s.serviceTypes) - 1; i >= 0; i-- {
		kind := s.serviceTypes[i]
		if err := s.services[kind].Stop(); err != nil {
			log.WithError(err).WithField("type", kind.String()).Error("Could not stop service")
		}
	}
}

// Statuses returns the Status result of every registered service.
func (s *ServiceRegistry) Statuses() map[reflect.Type]error {
	m := make(map[reflect.Type]error, len(s.serviceTypes))
	for _, kind := range s.serviceTypes {
		m[kind] = s.services[kind].Status()
	}
	return m
}

// RegisterService adds a service to the registry.
func (s *ServiceRegistry) RegisterService(service Service) error {
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return errors.Wrapf(ErrServiceExists, "%v", kind)
	}
	s.services[kind] = service
	s.serviceTypes = append(s.serviceTypes, kind)
	return nil
}

// FetchService sets the value behind the given pointer to the registered
// service of the pointed-to type.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	if reflect.TypeOf(service).Kind() != reflect.Ptr {
		return errors.Wrapf(ErrNotPointer, "received %T", service)
	}
	element := reflect.ValueOf(service).Elem()
	running, ok := s.services[element.Type()]
	if !ok {
		return errors.Wrapf(ErrUnknownService, "%T", service)
	}
	element.Set(reflect.ValueOf(running))
	return nil
}

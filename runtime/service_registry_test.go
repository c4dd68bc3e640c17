package runtime

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	status  error
	stopErr error
	stopped *[]string
	name    string
}

type secondMockService struct {
	mockService
}

func (*mockService) Start() {}

func (m *mockService) Stop() error {
	if m.stopped != nil {
		*m.stopped = append(*m.stopped, m.name)
	}
	return m.stopErr
}

func (m *mockService) Status() error {
	return m.status
}

func TestRegisterService_Twice(t *testing.T) {
	registry := NewServiceRegistry()
	m := &mockService{}
	require.NoError(t, registry.RegisterService(m))
	require.Len(t, registry.serviceTypes, 1)

	err := registry.RegisterService(m)
	assert.True(t, errors.Is(err, ErrServiceExists))
}

func TestRegisterService_Different(t *testing.T) {
	registry := NewServiceRegistry()
	m := &mockService{}
	s := &secondMockService{}
	require.NoError(t, registry.RegisterService(m))
	require.NoError(t, registry.RegisterService(s))
	require.Len(t, registry.serviceTypes, 2)

	assert.Contains(t, registry.services, reflect.TypeOf(m))
	assert.Contains(t, registry.services, reflect.TypeOf(s))
}

func TestFetchService(t *testing.T) {
	registry := NewServiceRegistry()
	m := &mockService{}
	require.NoError(t, registry.RegisterService(m))

	assert.True(t, errors.Is(registry.FetchService(*m), ErrNotPointer))

	var s *secondMockService
	assert.True(t, errors.Is(registry.FetchService(&s), ErrUnknownService))

	var fetched *mockService
	require.NoError(t, registry.FetchService(&fetched))
	assert.Same(t, m, fetched)
}

func TestStatuses(t *testing.T) {
	registry := NewServiceRegistry()
	m := &mockService{status: errors.New("journal unavailable")}
	s := &secondMockService{}
	require.NoError(t, registry.RegisterService(m))
	require.NoError(t, registry.RegisterService(s))

	statuses := registry.Statuses()
	assert.EqualError(t, statuses[reflect.TypeOf(m)], "journal unavailable")
	assert.NoError(t, statuses[reflect.TypeOf(s)])
}

func TestStopAll_ReverseOrder(t *testing.T) {
	var stopped []string
	registry := NewServiceRegistry()
	first := &mockService{name: "first", stopped: &stopped, stopErr: errors.New("boom")}
	second := &secondMockService{mockService{name: "second", stopped: &stopped}}
	require.NoError(t, registry.RegisterService(first))
	require.NoError(t, registry.RegisterService(second))

	registry.StopAll()
	assert.Equal(t, []string{"second", "first"}, stopped)
}

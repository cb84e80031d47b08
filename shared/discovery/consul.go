// Package discovery registers the service with a Consul agent.
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Service describes the instance being registered. Consul checks it through
// the gRPC health service on GRPCPort.
type Service struct {
	Name            string
	Address         string
	HTTPPort        int
	GRPCPort        int
	Tags            []string
	CheckInterval   time.Duration
	DeregisterAfter time.Duration
}

// ID is unique per instance and stable across restarts on the same address.
func (s Service) ID() string {
	return s.Name + "-" + net.JoinHostPort(s.Address, strconv.Itoa(s.GRPCPort))
}

type ConsulRegistrar struct {
	agent  *api.Agent
	logger *zerolog.Logger
}

func NewConsulRegistrar(logger *zerolog.Logger, addr string) (*ConsulRegistrar, error) {
	cfg := api.DefaultConfig()
	cfg.Address = addr

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulRegistrar{agent: client.Agent(), logger: logger}, nil
}

func (r *ConsulRegistrar) Register(service Service) error {
	if err := r.agent.ServiceRegister(newRegistration(service)); err != nil {
		return fmt.Errorf("failed to register %s with consul: %w", service.ID(), err)
	}

	r.logger.Info().Str("service_id", service.ID()).Msg("registered with consul")
	return nil
}

func (r *ConsulRegistrar) Deregister(service Service) error {
	if err := r.agent.ServiceDeregister(service.ID()); err != nil {
		return fmt.Errorf("failed to deregister %s from consul: %w", service.ID(), err)
	}

	r.logger.Info().Str("service_id", service.ID()).Msg("deregistered from consul")
	return nil
}

func newRegistration(service Service) *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:      service.ID(),
		Name:    service.Name,
		Address: service.Address,
		Port:    service.HTTPPort,
		Tags:    service.Tags,
		Meta: map[string]string{
			"grpc_port": strconv.Itoa(service.GRPCPort),
		},
		Check: &api.AgentServiceCheck{
			Name:                           service.Name + " grpc health",
			GRPC:                           net.JoinHostPort(service.Address, strconv.Itoa(service.GRPCPort)) + "/" + service.Name,
			Interval:                       service.CheckInterval.String(),
			DeregisterCriticalServiceAfter: service.DeregisterAfter.String(),
		},
	}
}

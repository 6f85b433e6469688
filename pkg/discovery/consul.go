package discovery

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/consul/api"

	"mykafa-quiz-service/internal/config"
)

// ServiceRegistry registers this service with consul so the API gateway can
// route /adaptive-quiz traffic to healthy instances.
type ServiceRegistry struct {
	client *api.Client
	cfg    *config.Config
	id     string
}

func NewServiceRegistry(cfg *config.Config) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = cfg.Consul.Address

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ServiceRegistry{
		client: client,
		cfg:    cfg,
		id:     fmt.Sprintf("%s-%s-http", cfg.Consul.ServiceName, cfg.Consul.ServiceAddress),
	}, nil
}

func (sr *ServiceRegistry) Register() error {
	port, err := strconv.Atoi(sr.cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("invalid HTTP port: %w", err)
	}

	registration := &api.AgentServiceRegistration{
		ID:      sr.id,
		Name:    sr.cfg.Consul.ServiceName,
		Port:    port,
		Address: sr.cfg.Consul.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/health", sr.cfg.Consul.ServiceAddress, sr.cfg.Server.Port),
			Interval: "10s",
			Timeout:  "5s",
		},
		Tags: []string{"quiz", "adaptive", "http", "api"},
		Meta: map[string]string{
			"protocol": "http",
			"version":  "1.0",
		},
	}

	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service with consul: %w", err)
	}
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	return sr.client.Agent().ServiceDeregister(sr.id)
}

// Package di wires the client stack together: the REST client, its
// asynchronous facade, the image loader, and shared instrumentation.
package di

import (
	"github.com/guldfisk/cubeclient-go/asyncclient"
	"github.com/guldfisk/cubeclient-go/client"
	"github.com/guldfisk/cubeclient-go/images"
	"github.com/guldfisk/cubeclient-go/rest"
)

// Container manages singleton instances of the client stack. The
// asynchronous facade and the image loader both sit on the same REST client.
type Container struct {
	config client.Config
	images images.Config

	rest   *rest.Client
	async  *asyncclient.Async
	loader *images.Loader
}

// NewContainer creates a DI container around the provided client
// configuration. The asynchronous facade requires paginated results that can
// be consumed without further requests, so the REST client is forced into
// static pagination. The image loader inherits the client's logger and
// metrics unless imageConfig overrides them.
func NewContainer(config client.Config, imageConfig images.Config) (*Container, error) {
	config.StaticPagination = true
	if imageConfig.Metrics == nil {
		imageConfig.Metrics = config.Metrics
	}
	if imageConfig.Logger == nil {
		imageConfig.Logger = config.Logger
	}

	restClient, err := rest.New(config)
	if err != nil {
		return nil, err
	}

	loader, err := images.NewLoader(restClient, imageConfig)
	if err != nil {
		return nil, err
	}

	return &Container{
		config: config,
		images: imageConfig,
		rest:   restClient,
		async: asyncclient.New(restClient, asyncclient.Options{
			Workers: config.Workers,
			Metrics: config.Metrics,
		}),
		loader: loader,
	}, nil
}

// NewContainerForHost creates a container with default configuration against
// the given host. This is a convenience constructor for typical use cases
// where custom configuration is not required.
func NewContainerForHost(host string) (*Container, error) {
	config := client.DefaultConfig()
	config.Host = host
	return NewContainer(config, images.Config{})
}

// Client returns the singleton synchronous client.
func (c *Container) Client() client.Client {
	return c.rest
}

// Async returns the singleton asynchronous facade.
func (c *Container) Async() *asyncclient.Async {
	return c.async
}

// Images returns the singleton image loader.
func (c *Container) Images() *images.Loader {
	return c.loader
}

// Config returns a copy of the client configuration used by this container.
func (c *Container) Config() client.Config {
	return c.config
}

// Close shuts down the worker pools of the asynchronous facade and the image
// loader. The synchronous client needs no teardown.
func (c *Container) Close() {
	c.async.Close()
	c.loader.Close()
}

package serve

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/config"
	"github.com/mpapenbr/track-dominance/pkg/utils/certs/traefik"
)

type certs struct {
	ctx           context.Context
	log           *log.Logger
	certFile      string
	keyFile       string
	traefikFile   string
	traefikDomain string
	cert          *tls.Certificate
	mu            sync.RWMutex
}

// NewTLSConfigProvider returns a TLS config serving the configured key pair.
// A traefik acme file takes precedence over cert and key file.
// The key pair is reloaded when the files change. Returns nil if no valid key
// pair is configured.
func NewTLSConfigProvider(ctx context.Context) *tls.Config {
	c := &certs{
		ctx:           ctx,
		log:           log.GetFromContext(ctx).Named("serve.certs"),
		certFile:      config.TLSCertFile,
		keyFile:       config.TLSKeyFile,
		traefikFile:   config.TraefikCerts,
		traefikDomain: config.TraefikCertDomain,
	}
	c.loadCert()
	if c.current() == nil {
		return nil
	}
	go c.watchAndReloadCerts()
	return &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return c.current(), nil
		},
		MinVersion: tls.VersionTLS13,
	}
}

func (c *certs) current() *tls.Certificate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cert
}

func (c *certs) watchAndReloadCerts() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.log.Error("could not create fsnotify watcher", log.ErrorField(err))
		return
	}
	defer watcher.Close()
	for _, file := range []string{c.certFile, c.keyFile, c.traefikFile} {
		if file == "" {
			continue
		}
		if err := watcher.Add(file); err != nil {
			c.log.Error("could not watch file", log.String("file", file), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-c.ctx.Done():
			c.log.Info("context done, stopping cert reload")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				c.log.Info("watcher events channel closed, stopping cert reload")
				return
			}
			c.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) ||
				event.Has(fsnotify.Create) {

				c.log.Info("cert file changed, reloading cert",
					log.String("file", event.Name))
				c.loadCert()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				c.log.Info("watcher errors channel closed, stopping cert reload")
				return
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}

// loadCert keeps the previous key pair if the files can't be loaded
func (c *certs) loadCert() {
	if c.traefikFile != "" && c.traefikDomain != "" {
		c.log.Info("Looking up traefik certs",
			log.String("file", c.traefikFile),
			log.String("domain", c.traefikDomain))
		cert, err := traefik.LoadKeyPair(c.traefikFile, c.traefikDomain)
		if err != nil {
			c.log.Error("could not load traefik certs", log.ErrorField(err))
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cert = &cert
		return
	}
	if c.certFile == "" || c.keyFile == "" {
		return
	}
	c.log.Info("Loading cert",
		log.String("key", c.keyFile),
		log.String("cert", c.certFile))
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		c.log.Error("could not load TLS key pair", log.ErrorField(err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
}

// Package net lets a presenter share its board with read-only viewers on the
// local network: a websocket frame stream plus mDNS advertisement.
package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

const serviceType = "_meetboard._tcp"

// ErrNoPresenter is returned by Discover when no presenter answered.
var ErrNoPresenter = errors.New("no presenter found on the local network")

// Advertise announces a presenter on port until the returned server is shut
// down.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"MeetBoard"})
	if err != nil {
		return nil, fmt.Errorf("create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service, Logger: quietLogger()})
	if err != nil {
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}
	logrus.WithFields(logrus.Fields{"component": "discovery", "host": host, "port": port}).Info("presenter advertised")
	return server, nil
}

// Discover returns host:port of the first presenter that answers within
// timeout.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			select {
			case found <- fmt.Sprintf("%s:%d", e.AddrV4, e.Port):
			default:
			}
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	params.Logger = quietLogger()
	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done
	if err != nil {
		return "", fmt.Errorf("mDNS query: %w", err)
	}

	select {
	case addr := <-found:
		logrus.WithFields(logrus.Fields{"component": "discovery", "addr": addr}).Info("presenter found")
		return addr, nil
	default:
		return "", ErrNoPresenter
	}
}

// quietLogger routes the library's stdlib logger into logrus at debug level.
func quietLogger() *log.Logger {
	var w io.Writer = logrus.WithField("component", "mdns").WriterLevel(logrus.DebugLevel)
	return log.New(w, "", 0)
}

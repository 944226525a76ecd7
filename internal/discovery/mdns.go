// Package discovery advertises the service on the local network over mDNS.
package discovery

import (
	"errors"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/pion/mdns/v2"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Advertiser answers mDNS queries for one local name
type Advertiser struct {
	name string
	conn *mdns.Conn
}

// ValidateLocalName checks that name is a .local host name
func ValidateLocalName(name string) error {
	if name == "" {
		return errors.New("empty mDNS local name")
	}
	if !strings.HasSuffix(strings.TrimSuffix(name, "."), ".local") {
		return fmt.Errorf("mDNS local name %q must end in .local", name)
	}
	return nil
}

// NewAdvertiser starts answering queries for localName on IPv4 and IPv6
func NewAdvertiser(localName string) (*Advertiser, error) {
	if err := ValidateLocalName(localName); err != nil {
		return nil, err
	}

	addr4, err := net.ResolveUDPAddr("udp4", mdns.DefaultAddressIPv4)
	if err != nil {
		return nil, fmt.Errorf("resolve udp4 address: %w", err)
	}

	addr6, err := net.ResolveUDPAddr("udp6", mdns.DefaultAddressIPv6)
	if err != nil {
		return nil, fmt.Errorf("resolve udp6 address: %w", err)
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		return nil, fmt.Errorf("listen udp4: %w", err)
	}

	l6, err := net.ListenUDP("udp6", addr6)
	if err != nil {
		l4.Close()
		return nil, fmt.Errorf("listen udp6: %w", err)
	}

	conn, err := mdns.Server(ipv4.NewPacketConn(l4), ipv6.NewPacketConn(l6), &mdns.Config{
		LocalNames: []string{localName},
	})
	if err != nil {
		l4.Close()
		l6.Close()
		return nil, fmt.Errorf("start mDNS server: %w", err)
	}

	log.Printf("DISCOVERY: Advertising %s over mDNS", localName)
	return &Advertiser{name: localName, conn: conn}, nil
}

// Close stops answering queries
func (a *Advertiser) Close() error {
	log.Printf("DISCOVERY: Stopped advertising %s", a.name)
	return a.conn.Close()
}

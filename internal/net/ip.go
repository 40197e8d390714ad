package net

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// LinkScheme prefixes share links handed to viewers.
const LinkScheme = "meetboard://"

// ShareLink builds the link a viewer opens to watch this board.
func ShareLink(host string, port int) string {
	return LinkScheme + net.JoinHostPort(host, strconv.Itoa(port))
}

// ParseShareLink returns the host:port a share link points at.
func ParseShareLink(link string) (string, error) {
	if !strings.HasPrefix(link, LinkScheme) {
		return "", fmt.Errorf("not a %s link: %q", LinkScheme, link)
	}
	addr := strings.TrimSuffix(strings.TrimPrefix(link, LinkScheme), "/")
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("bad share link %q: %w", link, err)
	}
	return addr, nil
}

// BoardURL is the websocket URL of the presenter at addr.
func BoardURL(addr string) string {
	return "ws://" + addr + BoardPath
}

// OutgoingIP picks the address other machines on the LAN can reach us on:
// the source address of the default route, else the first non-loopback IPv4
// interface address, else loopback.
func OutgoingIP() string {
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if udp, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return udp.IP.String()
		}
	}
	if ip := firstIPv4(); ip != nil {
		return ip.String()
	}
	return "127.0.0.1"
}

func firstIPv4() net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return nil
}

package network

import (
	"fmt"
	"net"
)

// Subnet describes the IPv4 range served on the bridge. The bridge itself
// takes the first host address and the DHCP range covers the rest of the
// block, minus the broadcast address.
type Subnet struct {
	cidr *net.IPNet
}

// ParseSubnet parses a CIDR block like "10.10.0.0/24"
func ParseSubnet(cidr string) (*Subnet, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet %s: %w", cidr, err)
	}
	if ipNet.IP.To4() == nil {
		return nil, fmt.Errorf("subnet %s is not IPv4", cidr)
	}
	ones, bits := ipNet.Mask.Size()
	if bits-ones < 3 {
		return nil, fmt.Errorf("subnet %s too small for a DHCP range", cidr)
	}
	return &Subnet{cidr: ipNet}, nil
}

// Gateway returns the bridge address, the first host in the block
func (s *Subnet) Gateway() net.IP {
	ip := cloneIP(s.cidr.IP.To4())
	incrementIP(ip)
	return ip
}

// RangeStart returns the first address handed out by DHCP
func (s *Subnet) RangeStart() net.IP {
	ip := cloneIP(s.cidr.IP.To4())
	incrementIP(ip)
	incrementIP(ip)
	return ip
}

// RangeEnd returns the last address handed out by DHCP, one below broadcast
func (s *Subnet) RangeEnd() net.IP {
	ip := s.Broadcast()
	decrementIP(ip)
	return ip
}

// Broadcast returns the broadcast address of the block
func (s *Subnet) Broadcast() net.IP {
	base := s.cidr.IP.To4()
	broadcast := make(net.IP, len(base))
	for i := 0; i < len(base); i++ {
		broadcast[i] = base[i] | ^s.cidr.Mask[i]
	}
	return broadcast
}

// Netmask returns the dotted-quad netmask
func (s *Subnet) Netmask() net.IP {
	return net.IP(s.cidr.Mask)
}

// Contains reports whether ip falls inside the block
func (s *Subnet) Contains(ip net.IP) bool {
	return s.cidr.Contains(ip)
}

func (s *Subnet) String() string {
	return s.cidr.String()
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

// incrementIP increments an IP address in place
func incrementIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

// decrementIP decrements an IP address in place
func decrementIP(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]--
		if ip[j] < 255 {
			break
		}
	}
}

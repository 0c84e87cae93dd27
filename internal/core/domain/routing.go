package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

// DefaultLabelPrefix is the label namespace routing declarations live under,
// e.g. "routing.http.routers.web.rule".
const DefaultLabelPrefix = "routing"

// RoutingConfig is the routing declared by a container's labels. It is either
// a SinglePort or a MultiPort.
type RoutingConfig interface {
	isRoutingConfig()
}

// SinglePort routes one router to the container's first published port.
type SinglePort struct {
	RouterName string
	Rule       string
}

// MultiPort routes several routers to distinct container ports.
type MultiPort struct {
	Entries []MultiPortEntry
}

// MultiPortEntry pairs a router with the service (and internal port) it targets.
type MultiPortEntry struct {
	RouterName  string
	Rule        string
	ServiceName string
	TargetPort  uint16
}

func (SinglePort) isRoutingConfig() {}
func (MultiPort) isRoutingConfig() {}

// LabelExtractor recognizes router and service declarations in container
// labels. It holds no state besides its compiled patterns and is safe for
// concurrent use.
type LabelExtractor struct {
	routerKey  *regexp.Regexp
	serviceKey *regexp.Regexp
}

// NewLabelExtractor returns an extractor for labels under the given prefix.
func NewLabelExtractor(prefix string) *LabelExtractor {
	p := regexp.QuoteMeta(prefix)
	return &LabelExtractor{
		routerKey:  regexp.MustCompile(fmt.Sprintf(`^%s\.http\.routers\.(.+)\.rule$`, p)),
		serviceKey: regexp.MustCompile(fmt.Sprintf(`^%s\.http\.services\.(.+)\.loadbalancer\.server\.port$`, p)),
	}
}

type namedRule struct {
	name string
	rule string
}

type namedPort struct {
	name string
	port uint16
}

// Extract returns the routing configuration declared by labels, or nil when
// the container declares no routers or declares an inconsistent set of
// routers and service ports.
//
// With several routers, routers and services are paired by their position
// after sorting each list by name.
func (e *LabelExtractor) Extract(labels map[string]string) RoutingConfig {
	var routers []namedRule
	for key, value := range labels {
		if m := e.routerKey.FindStringSubmatch(key); m != nil {
			routers = append(routers, namedRule{name: m[1], rule: value})
		}
	}
	sort.Slice(routers, func(i, j int) bool { return routers[i].name < routers[j].name })

	switch len(routers) {
	case 0:
		return nil
	case 1:
		return SinglePort{RouterName: routers[0].name, Rule: routers[0].rule}
	}

	var services []namedPort
	for key, value := range labels {
		m := e.serviceKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		port, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			continue
		}
		services = append(services, namedPort{name: m[1], port: uint16(port)})
	}
	sort.Slice(services, func(i, j int) bool { return services[i].name < services[j].name })

	if len(services) != len(routers) {
		return nil
	}

	entries := make([]MultiPortEntry, len(routers))
	for i := range routers {
		entries[i] = MultiPortEntry{
			RouterName:  routers[i].name,
			Rule:        routers[i].rule,
			ServiceName: services[i].name,
			TargetPort:  services[i].port,
		}
	}
	return MultiPort{Entries: entries}
}

package dynconf

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

func sampleDocument() *Document {
	return &Document{
		HTTP: HTTPConfiguration{
			Routers: map[string]Router{
				"to-my-service": {
					Rule:    "Host(`my-service.my-domain.com`)",
					Service: "my-service",
				},
			},
			Services: map[string]Service{
				"my-service": {
					LoadBalancer: LoadBalancer{
						Servers: []Server{
							{URL: "http://192.168.1.100:7878/"},
							{URL: "http://my-service.local:7878/"},
						},
					},
				},
			},
		},
	}
}

func TestDocument_YAML(t *testing.T) {
	expected := "http:\n" +
		"  routers:\n" +
		"    to-my-service:\n" +
		"      rule: Host(`my-service.my-domain.com`)\n" +
		"      service: my-service\n" +
		"  services:\n" +
		"    my-service:\n" +
		"      loadBalancer:\n" +
		"        servers:\n" +
		"          - url: http://192.168.1.100:7878/\n" +
		"          - url: http://my-service.local:7878/\n"

	out, err := sampleDocument().YAML()

	require.NoError(t, err)
	assert.Equal(t, expected, string(out))
}

func TestDocument_YAMLEmpty(t *testing.T) {
	doc := &Document{HTTP: HTTPConfiguration{
		Routers:  map[string]Router{},
		Services: map[string]Service{},
	}}

	out, err := doc.YAML()

	require.NoError(t, err)
	assert.Equal(t, "http:\n  routers: {}\n  services: {}\n", string(out))
}

func TestDocument_YAMLKeysAreSorted(t *testing.T) {
	doc := &Document{HTTP: HTTPConfiguration{
		Routers: map[string]Router{
			"zulu":  {Rule: "Host(`z.com`)", Service: "zulu"},
			"alpha": {Rule: "Host(`a.com`)", Service: "alpha"},
			"mike":  {Rule: "Host(`m.com`)", Service: "mike"},
		},
		Services: map[string]Service{},
	}}

	expected := "http:\n" +
		"  routers:\n" +
		"    alpha:\n" +
		"      rule: Host(`a.com`)\n" +
		"      service: alpha\n" +
		"    mike:\n" +
		"      rule: Host(`m.com`)\n" +
		"      service: mike\n" +
		"    zulu:\n" +
		"      rule: Host(`z.com`)\n" +
		"      service: zulu\n" +
		"  services: {}\n"

	out, err := doc.YAML()

	require.NoError(t, err)
	assert.Equal(t, expected, string(out))
}

func TestDocument_YAMLKeysAreSortedBytewise(t *testing.T) {
	names := []string{"web-9", "web-10", "web-2", "aZ", "a_", "10", "9"}
	doc := &Document{HTTP: HTTPConfiguration{
		Routers:  map[string]Router{},
		Services: map[string]Service{},
	}}
	for _, name := range names {
		doc.HTTP.Routers[name] = Router{Rule: "Host(`" + name + ".com`)", Service: name}
		doc.HTTP.Services[name] = Service{LoadBalancer: LoadBalancer{Servers: []Server{{URL: "http://" + name + "/"}}}}
	}

	want := append([]string(nil), names...)
	sort.Strings(want)
	require.Equal(t, []string{"10", "9", "aZ", "a_", "web-10", "web-2", "web-9"}, want)

	out, err := doc.YAML()
	require.NoError(t, err)

	var root yamlv3.Node
	require.NoError(t, yamlv3.Unmarshal(out, &root))
	httpNode := mappingValue(t, root.Content[0], "http")
	assert.Equal(t, want, mappingKeys(mappingValue(t, httpNode, "routers")))
	assert.Equal(t, want, mappingKeys(mappingValue(t, httpNode, "services")))
}

func TestDocument_YAMLKeepsLongRulesOnOneLine(t *testing.T) {
	rule := "Host(`my-service.my-domain.com`) && (PathPrefix(`/api/v1/some/long/path`) || PathPrefix(`/api/v2/another/long/path`))"
	doc := &Document{HTTP: HTTPConfiguration{
		Routers:  map[string]Router{"web": {Rule: rule, Service: "web"}},
		Services: map[string]Service{},
	}}

	out, err := doc.YAML()

	require.NoError(t, err)
	assert.Contains(t, string(out), "      rule: "+rule+"\n")
}

func mappingValue(t *testing.T, node *yamlv3.Node, key string) *yamlv3.Node {
	t.Helper()
	require.Equal(t, yamlv3.MappingNode, node.Kind)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	require.FailNow(t, "key not found", key)
	return nil
}

func mappingKeys(node *yamlv3.Node) []string {
	var keys []string
	for i := 0; i < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}

func TestDocument_YAMLIsIdempotent(t *testing.T) {
	first, err := sampleDocument().YAML()
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := sampleDocument().YAML()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// The rendered YAML must decode back to the proxy's expected structure.
func TestDocument_YAMLDecodesAsProxyConfiguration(t *testing.T) {
	out, err := sampleDocument().YAML()
	require.NoError(t, err)

	var decoded struct {
		HTTP struct {
			Routers map[string]struct {
				Rule    string `yaml:"rule"`
				Service string `yaml:"service"`
			} `yaml:"routers"`
			Services map[string]struct {
				LoadBalancer struct {
					Servers []struct {
						URL string `yaml:"url"`
					} `yaml:"servers"`
				} `yaml:"loadBalancer"`
			} `yaml:"services"`
		} `yaml:"http"`
	}
	require.NoError(t, yamlv3.Unmarshal(out, &decoded))

	require.Contains(t, decoded.HTTP.Routers, "to-my-service")
	assert.Equal(t, "Host(`my-service.my-domain.com`)", decoded.HTTP.Routers["to-my-service"].Rule)
	assert.Equal(t, "my-service", decoded.HTTP.Routers["to-my-service"].Service)
	require.Contains(t, decoded.HTTP.Services, "my-service")
	servers := decoded.HTTP.Services["my-service"].LoadBalancer.Servers
	require.Len(t, servers, 2)
	assert.Equal(t, "http://192.168.1.100:7878/", servers[0].URL)
	assert.Equal(t, "http://my-service.local:7878/", servers[1].URL)
}

func TestDocument_JSON(t *testing.T) {
	out, err := sampleDocument().JSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"http": {
			"routers": {
				"to-my-service": {"rule": "Host(`+"`my-service.my-domain.com`"+`)", "service": "my-service"}
			},
			"services": {
				"my-service": {"loadBalancer": {"servers": [
					{"url": "http://192.168.1.100:7878/"},
					{"url": "http://my-service.local:7878/"}
				]}}
			}
		}
	}`, string(out))

	var roundTrip Document
	require.NoError(t, json.Unmarshal(out, &roundTrip))
	assert.Equal(t, *sampleDocument(), roundTrip)
}

func TestDocument_YAMLAndJSONAgree(t *testing.T) {
	yamlOut, err := sampleDocument().YAML()
	require.NoError(t, err)
	jsonOut, err := sampleDocument().JSON()
	require.NoError(t, err)

	converted, err := sigsyaml.YAMLToJSON(yamlOut)
	require.NoError(t, err)
	assert.JSONEq(t, string(jsonOut), string(converted))
}

package linode

import "context"

// NodeBalancerSchema describes a load balancer.
var NodeBalancerSchema = NewSchema("NodeBalancer", "/nodebalancers/{id}", "/nodebalancers", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label", Mutable: true, Filterable: true},
	{Name: "hostname"},
	{Name: "ipv4", Filterable: true},
	{Name: "ipv6"},
	{Name: "region", Kind: KindRelationship, Target: "Region", Filterable: true},
	{Name: "client_conn_throttle", Mutable: true},
	{Name: "tags", Mutable: true, Filterable: true},
	{Name: "transfer", Volatile: true},
	{Name: "created", Kind: KindDatetime},
	{Name: "updated", Kind: KindDatetime},
	{Name: "configs", Kind: KindDerivedCollection, Target: "NodeBalancerConfig"},
}, WithLegacyListKey("nodebalancers"))

// NodeBalancerConfigSchema describes a port configuration of a NodeBalancer.
var NodeBalancerConfigSchema = NewSchema("NodeBalancerConfig", "/nodebalancers/{nodebalancer_id}/configs/{id}",
	"/nodebalancers/{nodebalancer_id}/configs", []Property{
		{Name: "id", Identifier: true, Filterable: true},
		{Name: "port", Mutable: true, Filterable: true},
		{Name: "protocol", Mutable: true, Filterable: true},
		{Name: "algorithm", Mutable: true},
		{Name: "stickiness", Mutable: true},
		{Name: "check", Mutable: true},
		{Name: "check_interval", Mutable: true},
		{Name: "check_timeout", Mutable: true},
		{Name: "check_attempts", Mutable: true},
		{Name: "check_path", Mutable: true},
		{Name: "check_body", Mutable: true},
		{Name: "check_passive", Mutable: true},
		{Name: "cipher_suite", Mutable: true},
		{Name: "ssl_commonname"},
		{Name: "ssl_fingerprint"},
		{Name: "nodes_status", Volatile: true},
		{Name: "nodes", Kind: KindDerivedCollection, Target: "NodeBalancerNode"},
	}, WithParents("nodebalancer_id"), WithLegacyListKey("configs"))

// NodeBalancerNodeSchema describes a backend of a NodeBalancer config. It
// is nested two levels deep.
var NodeBalancerNodeSchema = NewSchema("NodeBalancerNode", "/nodebalancers/{nodebalancer_id}/configs/{config_id}/nodes/{id}",
	"/nodebalancers/{nodebalancer_id}/configs/{config_id}/nodes", []Property{
		{Name: "id", Identifier: true, Filterable: true},
		{Name: "label", Mutable: true, Filterable: true},
		{Name: "address", Mutable: true, Filterable: true},
		{Name: "weight", Mutable: true},
		{Name: "mode", Mutable: true, Filterable: true},
		{Name: "status", Volatile: true},
	}, WithParents("nodebalancer_id", "config_id"), WithLegacyListKey("nodes"))

// NodeBalancer is a load balancer.
type NodeBalancer struct {
	*Resource
}

func wrapNodeBalancer(r *Resource) *NodeBalancer { return &NodeBalancer{Resource: r} }

func (n *NodeBalancer) Label(ctx context.Context) (string, error) {
	return n.GetString(ctx, "label")
}

func (n *NodeBalancer) SetLabel(label string) error {
	return n.Set("label", label)
}

func (n *NodeBalancer) Hostname(ctx context.Context) (string, error) {
	return n.GetString(ctx, "hostname")
}

func (n *NodeBalancer) IPv4(ctx context.Context) (string, error) {
	return n.GetString(ctx, "ipv4")
}

// Region returns an unpopulated reference to the NodeBalancer's region.
func (n *NodeBalancer) Region(ctx context.Context) (*Region, error) {
	related, err := n.Related(ctx, "region")
	if err != nil || related == nil {
		return nil, err
	}

	return wrapRegion(related), nil
}

// Configs lists the port configurations on first use.
func (n *NodeBalancer) Configs(ctx context.Context) (*PaginatedList[*NodeBalancerConfig], error) {
	return derivedOf(ctx, n.Resource, "configs", wrapNodeBalancerConfig)
}

// NodeBalancerConfig is a port configuration.
type NodeBalancerConfig struct {
	*Resource
}

func wrapNodeBalancerConfig(r *Resource) *NodeBalancerConfig { return &NodeBalancerConfig{Resource: r} }

func (c *NodeBalancerConfig) Port(ctx context.Context) (int, error) {
	return c.GetInt(ctx, "port")
}

func (c *NodeBalancerConfig) SetPort(port int) error {
	return c.Set("port", port)
}

func (c *NodeBalancerConfig) Protocol(ctx context.Context) (string, error) {
	return c.GetString(ctx, "protocol")
}

func (c *NodeBalancerConfig) SetProtocol(protocol string) error {
	return c.Set("protocol", protocol)
}

func (c *NodeBalancerConfig) Algorithm(ctx context.Context) (string, error) {
	return c.GetString(ctx, "algorithm")
}

func (c *NodeBalancerConfig) SetAlgorithm(algorithm string) error {
	return c.Set("algorithm", algorithm)
}

// Nodes lists the config's backends on first use.
func (c *NodeBalancerConfig) Nodes(ctx context.Context) (*PaginatedList[*NodeBalancerNode], error) {
	return derivedOf(ctx, c.Resource, "nodes", wrapNodeBalancerNode)
}

// NodeBalancerNode is a backend of a config.
type NodeBalancerNode struct {
	*Resource
}

func wrapNodeBalancerNode(r *Resource) *NodeBalancerNode { return &NodeBalancerNode{Resource: r} }

func (n *NodeBalancerNode) Label(ctx context.Context) (string, error) {
	return n.GetString(ctx, "label")
}

func (n *NodeBalancerNode) SetLabel(label string) error {
	return n.Set("label", label)
}

// Address returns the backend "ip:port".
func (n *NodeBalancerNode) Address(ctx context.Context) (string, error) {
	return n.GetString(ctx, "address")
}

func (n *NodeBalancerNode) SetAddress(address string) error {
	return n.Set("address", address)
}

func (n *NodeBalancerNode) Weight(ctx context.Context) (int, error) {
	return n.GetInt(ctx, "weight")
}

func (n *NodeBalancerNode) SetWeight(weight int) error {
	return n.Set("weight", weight)
}

// Mode returns "accept", "reject", "drain" or "backup".
func (n *NodeBalancerNode) Mode(ctx context.Context) (string, error) {
	return n.GetString(ctx, "mode")
}

func (n *NodeBalancerNode) SetMode(mode string) error {
	return n.Set("mode", mode)
}

// Status returns the health check status. It is refreshed once stale.
func (n *NodeBalancerNode) Status(ctx context.Context) (string, error) {
	return n.GetString(ctx, "status")
}

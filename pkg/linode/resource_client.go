package linode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ResourceClient is the typed entry point for one resource type, optionally
// scoped to a parent.
type ResourceClient[T any] struct {
	client  *Client
	schema  *Schema
	parents []interface{}
	wrap    func(*Resource) T
}

func newResourceClient[T any](client *Client, schema *Schema, wrap func(*Resource) T, parents ...interface{}) *ResourceClient[T] {
	return &ResourceClient[T]{
		client:  client,
		schema:  schema,
		parents: parents,
		wrap:    wrap,
	}
}

// Schema returns the descriptor table of the type.
func (rc *ResourceClient[T]) Schema() *Schema {
	return rc.schema
}

// Field returns a filter field of the type.
func (rc *ResourceClient[T]) Field(name string) FilterField {
	return rc.schema.Field(name)
}

// Get loads a resource by id.
func (rc *ResourceClient[T]) Get(ctx context.Context, id interface{}) (T, error) {
	var zero T

	resource, err := rc.client.Load(ctx, rc.schema, id, rc.parents...)
	if err != nil {
		return zero, err
	}

	return rc.wrap(resource), nil
}

// Ref returns an unpopulated resource. No request is made.
func (rc *ResourceClient[T]) Ref(id interface{}) (T, error) {
	var zero T

	resource, err := rc.client.Ref(rc.schema, id, rc.parents...)
	if err != nil {
		return zero, err
	}

	return rc.wrap(resource), nil
}

// List fetches the first page of the collection. Filters are ANDed.
func (rc *ResourceClient[T]) List(ctx context.Context, opts *ListOptions, filters ...*Filter) (*PaginatedList[T], error) {
	return listResources(ctx, rc.client, rc.schema, rc.parents, opts, filters, rc.wrap)
}

// Create posts a new resource to the collection.
func (rc *ResourceClient[T]) Create(ctx context.Context, body interface{}) (T, error) {
	var zero T

	resource, err := rc.client.Create(ctx, rc.schema, body, rc.parents...)
	if err != nil {
		return zero, err
	}

	return rc.wrap(resource), nil
}

// Delete removes a resource by id without loading it.
func (rc *ResourceClient[T]) Delete(ctx context.Context, id interface{}) error {
	resource, err := rc.client.Ref(rc.schema, id, rc.parents...)
	if err != nil {
		return err
	}

	return resource.Delete(ctx)
}

// getJSON performs a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.transport.Do(ctx, &Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return fmt.Errorf("%s %s: %w", http.MethodGet, path, err)
	}

	if resp == nil || len(resp.Body) == 0 {
		return &UnexpectedResponseError{Message: path + " returned no body"}
	}

	err = json.Unmarshal(resp.Body, out)
	if err != nil {
		return &UnexpectedResponseError{Message: err.Error(), StatusCode: resp.StatusCode, Body: resp.Body}
	}

	return nil
}

// action posts to a sub-path of a resource, e.g. ".../boot".
func (c *Client) action(ctx context.Context, r *Resource, verb string, body interface{}) error {
	_, err := c.Post(ctx, r.Path()+"/"+verb, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", verb, r, err)
	}

	return nil
}

// Instances returns the client for compute instances.
func (c *Client) Instances() *ResourceClient[*Instance] {
	return newResourceClient(c, InstanceSchema, wrapInstance)
}

// Disks returns the client for the disks of one instance.
func (c *Client) Disks(linodeID interface{}) *ResourceClient[*Disk] {
	return newResourceClient(c, DiskSchema, wrapDisk, linodeID)
}

// InstanceConfigs returns the client for the configuration profiles of one
// instance.
func (c *Client) InstanceConfigs(linodeID interface{}) *ResourceClient[*InstanceConfig] {
	return newResourceClient(c, InstanceConfigSchema, wrapInstanceConfig, linodeID)
}

// Regions returns the client for regions.
func (c *Client) Regions() *ResourceClient[*Region] {
	return newResourceClient(c, RegionSchema, wrapRegion)
}

// Images returns the client for images.
func (c *Client) Images() *ResourceClient[*Image] {
	return newResourceClient(c, ImageSchema, wrapImage)
}

// Types returns the client for instance types.
func (c *Client) Types() *ResourceClient[*Type] {
	return newResourceClient(c, TypeSchema, wrapType)
}

// Volumes returns the client for block storage volumes.
func (c *Client) Volumes() *ResourceClient[*Volume] {
	return newResourceClient(c, VolumeSchema, wrapVolume)
}

// Domains returns the client for DNS domains.
func (c *Client) Domains() *ResourceClient[*Domain] {
	return newResourceClient(c, DomainSchema, wrapDomain)
}

// DomainRecords returns the client for the records of one domain.
func (c *Client) DomainRecords(domainID interface{}) *ResourceClient[*DomainRecord] {
	return newResourceClient(c, DomainRecordSchema, wrapDomainRecord, domainID)
}

// NodeBalancers returns the client for NodeBalancers.
func (c *Client) NodeBalancers() *ResourceClient[*NodeBalancer] {
	return newResourceClient(c, NodeBalancerSchema, wrapNodeBalancer)
}

// NodeBalancerConfigs returns the client for the configs of one NodeBalancer.
func (c *Client) NodeBalancerConfigs(nodeBalancerID interface{}) *ResourceClient[*NodeBalancerConfig] {
	return newResourceClient(c, NodeBalancerConfigSchema, wrapNodeBalancerConfig, nodeBalancerID)
}

// NodeBalancerNodes returns the client for the nodes of one NodeBalancer
// config. It takes the NodeBalancer id and the config id, or one combined
// "<nodebalancer_id>/<config_id>" key.
func (c *Client) NodeBalancerNodes(parents ...interface{}) *ResourceClient[*NodeBalancerNode] {
	return newResourceClient(c, NodeBalancerNodeSchema, wrapNodeBalancerNode, parents...)
}

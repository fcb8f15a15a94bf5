package linode

import (
	"context"
	"time"
)

// InstanceSchema describes a compute instance.
var InstanceSchema = NewSchema("Instance", "/linode/instances/{id}", "/linode/instances", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label", Mutable: true, Filterable: true},
	{Name: "group", Mutable: true, Filterable: true},
	{Name: "tags", Mutable: true, Filterable: true},
	{Name: "status", Volatile: true, Filterable: true},
	{Name: "region", Kind: KindRelationship, Target: "Region", Filterable: true},
	{Name: "image", Kind: KindRelationship, Target: "Image", Filterable: true},
	{Name: "type", Kind: KindRelationship, Target: "Type", Filterable: true},
	{Name: "ipv4"},
	{Name: "ipv6"},
	{Name: "hypervisor"},
	{Name: "specs"},
	{Name: "alerts", Mutable: true},
	{Name: "backups"},
	{Name: "watchdog_enabled", Mutable: true},
	{Name: "created", Kind: KindDatetime},
	{Name: "updated", Kind: KindDatetime, Volatile: true},
	{Name: "disks", Kind: KindDerivedCollection, Target: "Disk"},
	{Name: "configs", Kind: KindDerivedCollection, Target: "InstanceConfig"},
}, WithLegacyListKey("linodes"))

// DiskSchema describes a disk of an instance.
var DiskSchema = NewSchema("Disk", "/linode/instances/{linode_id}/disks/{id}", "/linode/instances/{linode_id}/disks", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label", Mutable: true, Filterable: true},
	{Name: "size", Filterable: true},
	{Name: "filesystem", Filterable: true},
	{Name: "status", Volatile: true},
	{Name: "created", Kind: KindDatetime},
	{Name: "updated", Kind: KindDatetime},
}, WithParents("linode_id"), WithLegacyListKey("disks"))

// InstanceConfigSchema describes a configuration profile of an instance.
var InstanceConfigSchema = NewSchema("InstanceConfig", "/linode/instances/{linode_id}/configs/{id}",
	"/linode/instances/{linode_id}/configs", []Property{
		{Name: "id", Identifier: true, Filterable: true},
		{Name: "label", Mutable: true, Filterable: true},
		{Name: "comments", Mutable: true},
		{Name: "kernel", Mutable: true, Filterable: true},
		{Name: "memory_limit", Mutable: true},
		{Name: "root_device", Mutable: true},
		{Name: "run_level", Mutable: true},
		{Name: "virt_mode", Mutable: true},
		{Name: "devices", Mutable: true},
		{Name: "helpers", Mutable: true},
		{Name: "interfaces", Mutable: true},
		{Name: "created", Kind: KindDatetime},
		{Name: "updated", Kind: KindDatetime},
	}, WithParents("linode_id"), WithLegacyListKey("configs"))

// Instance is a compute instance.
type Instance struct {
	*Resource
}

func wrapInstance(r *Resource) *Instance { return &Instance{Resource: r} }

// Label returns the instance label.
func (i *Instance) Label(ctx context.Context) (string, error) {
	return i.GetString(ctx, "label")
}

// SetLabel changes the label locally.
func (i *Instance) SetLabel(label string) error {
	return i.Set("label", label)
}

// Group returns the display group.
func (i *Instance) Group(ctx context.Context) (string, error) {
	return i.GetString(ctx, "group")
}

// SetGroup changes the display group locally.
func (i *Instance) SetGroup(group string) error {
	return i.Set("group", group)
}

// Tags returns the tag list.
func (i *Instance) Tags(ctx context.Context) ([]string, error) {
	return i.GetStrings(ctx, "tags")
}

// SetTags replaces the tag list locally.
func (i *Instance) SetTags(tags []string) error {
	return i.Set("tags", tags)
}

// Status returns the power status. It is refreshed once stale.
func (i *Instance) Status(ctx context.Context) (string, error) {
	return i.GetString(ctx, "status")
}

// Created returns the creation time.
func (i *Instance) Created(ctx context.Context) (time.Time, error) {
	return i.GetTime(ctx, "created")
}

// Updated returns the last update time.
func (i *Instance) Updated(ctx context.Context) (time.Time, error) {
	return i.GetTime(ctx, "updated")
}

// Specs returns the disk/memory/vcpu/transfer summary.
func (i *Instance) Specs(ctx context.Context) (map[string]interface{}, error) {
	return i.GetObject(ctx, "specs")
}

// Alerts returns the alert thresholds.
func (i *Instance) Alerts(ctx context.Context) (map[string]interface{}, error) {
	return i.GetObject(ctx, "alerts")
}

// SetAlerts replaces the alert thresholds locally. The object is saved whole.
func (i *Instance) SetAlerts(alerts map[string]interface{}) error {
	return i.Set("alerts", alerts)
}

// Region returns an unpopulated reference to the instance's region.
func (i *Instance) Region(ctx context.Context) (*Region, error) {
	related, err := i.Related(ctx, "region")
	if err != nil || related == nil {
		return nil, err
	}

	return wrapRegion(related), nil
}

// Image returns the image the instance was deployed from, or nil.
func (i *Instance) Image(ctx context.Context) (*Image, error) {
	related, err := i.Related(ctx, "image")
	if err != nil || related == nil {
		return nil, err
	}

	return wrapImage(related), nil
}

// Type returns the instance plan.
func (i *Instance) Type(ctx context.Context) (*Type, error) {
	related, err := i.Related(ctx, "type")
	if err != nil || related == nil {
		return nil, err
	}

	return wrapType(related), nil
}

// Disks lists the instance's disks on first use.
func (i *Instance) Disks(ctx context.Context) (*PaginatedList[*Disk], error) {
	return derivedOf(ctx, i.Resource, "disks", wrapDisk)
}

// Configs lists the instance's configuration profiles on first use.
func (i *Instance) Configs(ctx context.Context) (*PaginatedList[*InstanceConfig], error) {
	return derivedOf(ctx, i.Resource, "configs", wrapInstanceConfig)
}

// IPAddress is one address assigned to an instance.
type IPAddress struct {
	Address    string  `json:"address"              yaml:"address"`
	Gateway    *string `json:"gateway"              yaml:"gateway"`
	SubnetMask string  `json:"subnet_mask"          yaml:"subnet_mask"`
	Prefix     int     `json:"prefix"               yaml:"prefix"`
	Type       string  `json:"type"                 yaml:"type"`
	Public     bool    `json:"public"               yaml:"public"`
	RDNS       *string `json:"rdns"                 yaml:"rdns"`
	LinodeID   int     `json:"linode_id"            yaml:"linode_id"`
	Region     string  `json:"region"               yaml:"region"`
	VPCNAT11   *string `json:"vpc_nat_1_1,omitempty" yaml:"vpc_nat_1_1,omitempty"`
}

// InstanceIPs is the networking summary of an instance.
type InstanceIPs struct {
	IPv4 struct {
		Public   []IPAddress `json:"public"   yaml:"public"`
		Private  []IPAddress `json:"private"  yaml:"private"`
		Shared   []IPAddress `json:"shared"   yaml:"shared"`
		Reserved []IPAddress `json:"reserved" yaml:"reserved"`
	} `json:"ipv4" yaml:"ipv4"`
	IPv6 struct {
		SLAAC     *IPAddress `json:"slaac"      yaml:"slaac"`
		LinkLocal *IPAddress `json:"link_local" yaml:"link_local"`
	} `json:"ipv6" yaml:"ipv6"`
}

// IPs fetches the networking summary once and memoizes it until the
// instance is invalidated.
func (i *Instance) IPs(ctx context.Context) (*InstanceIPs, error) {
	value, err := i.Memo(ctx, "ips", func(ctx context.Context) (interface{}, error) {
		var ips InstanceIPs

		err := i.client.getJSON(ctx, i.Path()+"/ips", &ips)
		if err != nil {
			return nil, err
		}

		return &ips, nil
	})
	if err != nil {
		return nil, err
	}

	ips, _ := value.(*InstanceIPs)

	return ips, nil
}

// Boot powers the instance on. Cached attributes are invalidated.
func (i *Instance) Boot(ctx context.Context) error {
	err := i.client.action(ctx, i.Resource, "boot", nil)
	if err != nil {
		return err
	}

	i.Invalidate()

	return nil
}

// Reboot restarts the instance. Cached attributes are invalidated.
func (i *Instance) Reboot(ctx context.Context) error {
	err := i.client.action(ctx, i.Resource, "reboot", nil)
	if err != nil {
		return err
	}

	i.Invalidate()

	return nil
}

// Shutdown powers the instance off. Cached attributes are invalidated.
func (i *Instance) Shutdown(ctx context.Context) error {
	err := i.client.action(ctx, i.Resource, "shutdown", nil)
	if err != nil {
		return err
	}

	i.Invalidate()

	return nil
}

// Disk is a disk of an instance.
type Disk struct {
	*Resource
}

func wrapDisk(r *Resource) *Disk { return &Disk{Resource: r} }

func (d *Disk) Label(ctx context.Context) (string, error) {
	return d.GetString(ctx, "label")
}

func (d *Disk) SetLabel(label string) error {
	return d.Set("label", label)
}

// Size returns the disk size in MB.
func (d *Disk) Size(ctx context.Context) (int, error) {
	return d.GetInt(ctx, "size")
}

func (d *Disk) Filesystem(ctx context.Context) (string, error) {
	return d.GetString(ctx, "filesystem")
}

func (d *Disk) Status(ctx context.Context) (string, error) {
	return d.GetString(ctx, "status")
}

// InstanceConfig is a boot configuration profile of an instance.
type InstanceConfig struct {
	*Resource
}

func wrapInstanceConfig(r *Resource) *InstanceConfig { return &InstanceConfig{Resource: r} }

func (c *InstanceConfig) Label(ctx context.Context) (string, error) {
	return c.GetString(ctx, "label")
}

func (c *InstanceConfig) SetLabel(label string) error {
	return c.Set("label", label)
}

func (c *InstanceConfig) Kernel(ctx context.Context) (string, error) {
	return c.GetString(ctx, "kernel")
}

func (c *InstanceConfig) SetKernel(kernel string) error {
	return c.Set("kernel", kernel)
}

// Devices returns the device map, e.g. {"sda": {"disk_id": 123}}.
func (c *InstanceConfig) Devices(ctx context.Context) (map[string]interface{}, error) {
	return c.GetObject(ctx, "devices")
}

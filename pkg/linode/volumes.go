package linode

import "context"

// VolumeSchema describes a block storage volume.
var VolumeSchema = NewSchema("Volume", "/volumes/{id}", "/volumes", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label", Mutable: true, Filterable: true},
	{Name: "size", Filterable: true},
	{Name: "status", Volatile: true},
	{Name: "region", Kind: KindRelationship, Target: "Region", Filterable: true},
	{Name: "linode_id", Kind: KindRelationship, Target: "Instance", Filterable: true},
	{Name: "linode_label"},
	{Name: "tags", Mutable: true, Filterable: true},
	{Name: "filesystem_path"},
	{Name: "hardware_type"},
	{Name: "created", Kind: KindDatetime},
	{Name: "updated", Kind: KindDatetime},
}, WithLegacyListKey("volumes"))

// Volume is a block storage volume.
type Volume struct {
	*Resource
}

func wrapVolume(r *Resource) *Volume { return &Volume{Resource: r} }

func (v *Volume) Label(ctx context.Context) (string, error) {
	return v.GetString(ctx, "label")
}

func (v *Volume) SetLabel(label string) error {
	return v.Set("label", label)
}

// Size returns the size in GB.
func (v *Volume) Size(ctx context.Context) (int, error) {
	return v.GetInt(ctx, "size")
}

// Status returns the volume status. It is refreshed once stale.
func (v *Volume) Status(ctx context.Context) (string, error) {
	return v.GetString(ctx, "status")
}

func (v *Volume) Tags(ctx context.Context) ([]string, error) {
	return v.GetStrings(ctx, "tags")
}

func (v *Volume) SetTags(tags []string) error {
	return v.Set("tags", tags)
}

// Region returns an unpopulated reference to the volume's region.
func (v *Volume) Region(ctx context.Context) (*Region, error) {
	related, err := v.Related(ctx, "region")
	if err != nil || related == nil {
		return nil, err
	}

	return wrapRegion(related), nil
}

// Instance returns the instance the volume is attached to, or nil.
func (v *Volume) Instance(ctx context.Context) (*Instance, error) {
	related, err := v.Related(ctx, "linode_id")
	if err != nil || related == nil {
		return nil, err
	}

	return wrapInstance(related), nil
}

// Attach attaches the volume to an instance.
func (v *Volume) Attach(ctx context.Context, linodeID interface{}) error {
	err := v.client.action(ctx, v.Resource, "attach", map[string]interface{}{"linode_id": filterValue(linodeID)})
	if err != nil {
		return err
	}

	v.Invalidate()

	return nil
}

// Detach detaches the volume.
func (v *Volume) Detach(ctx context.Context) error {
	err := v.client.action(ctx, v.Resource, "detach", nil)
	if err != nil {
		return err
	}

	v.Invalidate()

	return nil
}

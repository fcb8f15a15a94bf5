package linode

import "context"

// RegionSchema describes a data center region.
var RegionSchema = NewSchema("Region", "/regions/{id}", "/regions", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label"},
	{Name: "country", Filterable: true},
	{Name: "capabilities"},
	{Name: "status", Volatile: true},
	{Name: "resolvers"},
	{Name: "site_type", Filterable: true},
}, WithLegacyListKey("regions"))

// ImageSchema describes a disk image. Image ids are path-like, e.g.
// "linode/debian12".
var ImageSchema = NewSchema("Image", "/images/{id}", "/images", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label", Mutable: true, Filterable: true},
	{Name: "description", Mutable: true},
	{Name: "is_public", Filterable: true},
	{Name: "deprecated", Filterable: true},
	{Name: "vendor", Filterable: true},
	{Name: "size", Filterable: true},
	{Name: "type"},
	{Name: "status", Volatile: true},
	{Name: "created_by"},
	{Name: "created", Kind: KindDatetime},
	{Name: "expiry", Kind: KindDatetime},
}, WithLegacyListKey("images"))

// TypeSchema describes an instance plan.
var TypeSchema = NewSchema("Type", "/linode/types/{id}", "/linode/types", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "label", Filterable: true},
	{Name: "class", Filterable: true},
	{Name: "vcpus", Filterable: true},
	{Name: "memory", Filterable: true},
	{Name: "disk", Filterable: true},
	{Name: "transfer"},
	{Name: "network_out"},
	{Name: "gpus", Filterable: true},
	{Name: "price"},
}, WithLegacyListKey("types"))

// Region is a data center.
type Region struct {
	*Resource
}

func wrapRegion(r *Resource) *Region { return &Region{Resource: r} }

// Label returns the human-readable region name.
func (r *Region) Label(ctx context.Context) (string, error) {
	return r.GetString(ctx, "label")
}

// Country returns the ISO country code.
func (r *Region) Country(ctx context.Context) (string, error) {
	return r.GetString(ctx, "country")
}

// Status returns the region status. It is refreshed once stale.
func (r *Region) Status(ctx context.Context) (string, error) {
	return r.GetString(ctx, "status")
}

// Capabilities returns the region's feature list.
func (r *Region) Capabilities(ctx context.Context) ([]string, error) {
	return r.GetStrings(ctx, "capabilities")
}

// Image is a disk image.
type Image struct {
	*Resource
}

func wrapImage(r *Resource) *Image { return &Image{Resource: r} }

func (i *Image) Label(ctx context.Context) (string, error) {
	return i.GetString(ctx, "label")
}

func (i *Image) SetLabel(label string) error {
	return i.Set("label", label)
}

func (i *Image) Description(ctx context.Context) (string, error) {
	return i.GetString(ctx, "description")
}

func (i *Image) SetDescription(description string) error {
	return i.Set("description", description)
}

func (i *Image) IsPublic(ctx context.Context) (bool, error) {
	return i.GetBool(ctx, "is_public")
}

// Size returns the image size in MB.
func (i *Image) Size(ctx context.Context) (int, error) {
	return i.GetInt(ctx, "size")
}

// Type is an instance plan.
type Type struct {
	*Resource
}

func wrapType(r *Resource) *Type { return &Type{Resource: r} }

func (t *Type) Label(ctx context.Context) (string, error) {
	return t.GetString(ctx, "label")
}

func (t *Type) Class(ctx context.Context) (string, error) {
	return t.GetString(ctx, "class")
}

func (t *Type) VCPUs(ctx context.Context) (int, error) {
	return t.GetInt(ctx, "vcpus")
}

// Memory returns RAM in MB.
func (t *Type) Memory(ctx context.Context) (int, error) {
	return t.GetInt(ctx, "memory")
}

// Disk returns storage in MB.
func (t *Type) Disk(ctx context.Context) (int, error) {
	return t.GetInt(ctx, "disk")
}

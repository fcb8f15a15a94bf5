package linode

import "context"

// DomainSchema describes a DNS zone.
var DomainSchema = NewSchema("Domain", "/domains/{id}", "/domains", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "domain", Filterable: true},
	{Name: "type", Filterable: true},
	{Name: "status", Mutable: true, Filterable: true},
	{Name: "group", Mutable: true, Filterable: true},
	{Name: "tags", Mutable: true, Filterable: true},
	{Name: "description", Mutable: true},
	{Name: "soa_email", Mutable: true},
	{Name: "ttl_sec", Mutable: true},
	{Name: "refresh_sec", Mutable: true},
	{Name: "retry_sec", Mutable: true},
	{Name: "expire_sec", Mutable: true},
	{Name: "master_ips", Mutable: true},
	{Name: "axfr_ips", Mutable: true},
	{Name: "created", Kind: KindDatetime},
	{Name: "updated", Kind: KindDatetime},
	{Name: "records", Kind: KindDerivedCollection, Target: "DomainRecord"},
}, WithLegacyListKey("domains"))

// DomainRecordSchema describes a record of a DNS zone.
var DomainRecordSchema = NewSchema("DomainRecord", "/domains/{domain_id}/records/{id}", "/domains/{domain_id}/records", []Property{
	{Name: "id", Identifier: true, Filterable: true},
	{Name: "type", Filterable: true},
	{Name: "name", Mutable: true, Filterable: true},
	{Name: "target", Mutable: true, Filterable: true},
	{Name: "priority", Mutable: true},
	{Name: "weight", Mutable: true},
	{Name: "port", Mutable: true},
	{Name: "service", Mutable: true},
	{Name: "protocol", Mutable: true},
	{Name: "tag", Mutable: true},
	{Name: "ttl_sec", Mutable: true},
	{Name: "created", Kind: KindDatetime},
	{Name: "updated", Kind: KindDatetime},
}, WithParents("domain_id"), WithLegacyListKey("records"))

// Domain is a DNS zone.
type Domain struct {
	*Resource
}

func wrapDomain(r *Resource) *Domain { return &Domain{Resource: r} }

// Domain returns the zone name.
func (d *Domain) Domain(ctx context.Context) (string, error) {
	return d.GetString(ctx, "domain")
}

// Type returns "master" or "slave".
func (d *Domain) Type(ctx context.Context) (string, error) {
	return d.GetString(ctx, "type")
}

func (d *Domain) SOAEmail(ctx context.Context) (string, error) {
	return d.GetString(ctx, "soa_email")
}

func (d *Domain) SetSOAEmail(email string) error {
	return d.Set("soa_email", email)
}

func (d *Domain) Description(ctx context.Context) (string, error) {
	return d.GetString(ctx, "description")
}

func (d *Domain) SetDescription(description string) error {
	return d.Set("description", description)
}

func (d *Domain) TTLSec(ctx context.Context) (int, error) {
	return d.GetInt(ctx, "ttl_sec")
}

func (d *Domain) SetTTLSec(ttl int) error {
	return d.Set("ttl_sec", ttl)
}

// Records lists the zone's records on first use.
func (d *Domain) Records(ctx context.Context) (*PaginatedList[*DomainRecord], error) {
	return derivedOf(ctx, d.Resource, "records", wrapDomainRecord)
}

// DomainRecord is a DNS record.
type DomainRecord struct {
	*Resource
}

func wrapDomainRecord(r *Resource) *DomainRecord { return &DomainRecord{Resource: r} }

// Type returns the record type, e.g. "A" or "MX".
func (r *DomainRecord) Type(ctx context.Context) (string, error) {
	return r.GetString(ctx, "type")
}

func (r *DomainRecord) Name(ctx context.Context) (string, error) {
	return r.GetString(ctx, "name")
}

func (r *DomainRecord) SetName(name string) error {
	return r.Set("name", name)
}

func (r *DomainRecord) Target(ctx context.Context) (string, error) {
	return r.GetString(ctx, "target")
}

func (r *DomainRecord) SetTarget(target string) error {
	return r.Set("target", target)
}

func (r *DomainRecord) TTLSec(ctx context.Context) (int, error) {
	return r.GetInt(ctx, "ttl_sec")
}

func (r *DomainRecord) SetTTLSec(ttl int) error {
	return r.Set("ttl_sec", ttl)
}

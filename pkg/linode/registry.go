package linode

// builtinSchemas lists every resource type shipped with the package.
func builtinSchemas() []*Schema {
	return []*Schema{
		RegionSchema,
		ImageSchema,
		TypeSchema,
		InstanceSchema,
		DiskSchema,
		InstanceConfigSchema,
		VolumeSchema,
		DomainSchema,
		DomainRecordSchema,
		NodeBalancerSchema,
		NodeBalancerConfigSchema,
		NodeBalancerNodeSchema,
	}
}

// DefaultRegistry returns a new registry holding the built-in resource
// types. Extend it with Register to add types of your own.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(builtinSchemas()...)
	if err != nil {
		// names are unique
		panic(err)
	}

	return registry
}

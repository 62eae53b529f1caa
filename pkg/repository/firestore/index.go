package firestore

import "github.com/m-mizutani/fireconf"

// IndexConfig returns the composite indexes required by the queries in this
// package. prefix must match the one given to WithCollectionPrefix.
func IndexConfig(prefix string) *fireconf.Config {
	root := func(name string) string {
		if prefix != "" {
			return prefix + "_" + name
		}
		return name
	}

	byRecency := []fireconf.IndexField{
		{Path: "created_at", Order: fireconf.OrderDescending},
		{Path: "id", Order: fireconf.OrderDescending},
	}
	scoped := func(fields ...fireconf.IndexField) []fireconf.IndexField {
		return append(fields, byRecency...)
	}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				// tenants/{tenant}/actions
				Name: actionsSubCollection,
				Indexes: []fireconf.Index{
					// List for managers: site_id ASC, created_at DESC, id DESC
					{Fields: scoped(
						fireconf.IndexField{Path: "site_id", Order: fireconf.OrderAscending},
					)},
					// List for operators, one index per OR branch
					{Fields: scoped(
						fireconf.IndexField{Path: "site_id", Order: fireconf.OrderAscending},
						fireconf.IndexField{Path: "created_by", Order: fireconf.OrderAscending},
					)},
					{Fields: scoped(
						fireconf.IndexField{Path: "site_id", Order: fireconf.OrderAscending},
						fireconf.IndexField{Path: "assigned_to", Order: fireconf.OrderAscending},
					)},
				},
			},
			{
				Name: root(usersCollection),
				Indexes: []fireconf.Index{
					// ListBySite: tenant_id ASC, site_id ASC, created_at DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "tenant_id", Order: fireconf.OrderAscending},
							{Path: "site_id", Order: fireconf.OrderAscending},
							{Path: "created_at", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: root(tasksCollection),
				Indexes: []fireconf.Index{
					{Fields: byRecency},
				},
			},
		},
	}
}

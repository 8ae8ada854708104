package domain

var Tables = []interface{}{
	// System
	&SysSetting{},
	&AuditEntry{},
	&AuthToken{},
	// Registry
	&Product{},
	&Customer{},
	&Staff{},
	&Assignment{},
}

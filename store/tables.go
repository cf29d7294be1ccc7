package store

// Tables maps the logical entities to their physical table names. Hosts with
// naming conventions of their own pass a customized value to New; zero-value
// fields fall back to the defaults.
type Tables struct {
	Clients            string
	Tokens             string
	AuthorizationCodes string
	Scopes             string
}

// DefaultTables returns the table names used when the host does not override
// them.
func DefaultTables() Tables {
	return Tables{
		Clients:            "oauth_clients",
		Tokens:             "oauth_tokens",
		AuthorizationCodes: "oauth_authorization_codes",
		Scopes:             "oauth_scopes",
	}
}

// merged fills zero-value fields from the defaults.
func (t Tables) merged() Tables {
	def := DefaultTables()
	if t.Clients == "" {
		t.Clients = def.Clients
	}
	if t.Tokens == "" {
		t.Tokens = def.Tokens
	}
	if t.AuthorizationCodes == "" {
		t.AuthorizationCodes = def.AuthorizationCodes
	}
	if t.Scopes == "" {
		t.Scopes = def.Scopes
	}
	return t
}

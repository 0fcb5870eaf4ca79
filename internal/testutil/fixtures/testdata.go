// Package fixtures provides shared test data constants for the module kit
// test suite.
//
// Using common constants for test module identities prevents magic strings
// in tests and ensures consistency across packages.
package fixtures

// Standard module identity values used across dispatch and integration tests.
const (
	// ModuleName is the default module name for unit tests.
	ModuleName = "notifier"

	// ModuleVersion is the default module version for unit tests.
	ModuleVersion = "1.0.0"

	// AltModuleName is an alternative module name for tests requiring two
	// modules.
	AltModuleName = "scheduler"

	// AltModuleVersion is an alternative module version string.
	AltModuleVersion = "2.0.0"

	// ToolSendEmail is the default tool name for dispatch tests.
	ToolSendEmail = "send_email"

	// ToolCheckStatus is a secondary tool name for tests requiring two tools.
	ToolCheckStatus = "check_status"
)

// Standard caller identity values used in context and token tests.
const (
	// UserID is the default calling user for test requests.
	UserID = "user-abc-123"

	// DisplayName is the default display name for test requests.
	DisplayName = "Test User"

	// ConversationID is the default conversation for test requests.
	ConversationID = "conv-042"

	// RequestID is the default request identifier for test requests.
	RequestID = "req-0001"

	// SecretName is the default secret key for test requests.
	SecretName = "SENDGRID_API_KEY"

	// SecretValue is the default secret value for test requests. This is a
	// deliberately fake value suitable only for unit tests.
	SecretValue = "sk-test-4242"

	// TokenSigningKey is the HMAC key for signed context token tests. This
	// is a deliberately weak value suitable only for unit tests.
	TokenSigningKey = "test-signing-key-0123456789abcdef"

	// TokenIssuer is the default issuer for signed context token tests.
	TokenIssuer = "https://gateway.stricklysoft.test"
)

// Standard configuration values used in config loader tests.
const (
	// TestEnvPrefix is the default environment variable prefix for config tests.
	TestEnvPrefix = "TESTAPP"

	// TestConfigYAML is a minimal valid YAML configuration for tests.
	TestConfigYAML = `host: localhost
port: 8080
database: testdb
`

	// TestConfigJSON is a minimal valid JSON configuration for tests.
	TestConfigJSON = `{
  "host": "localhost",
  "port": 8080,
  "database": "testdb"
}`
)

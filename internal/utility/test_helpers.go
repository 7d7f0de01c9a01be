package utility

import "testing"

// UseHashConfigForTest makes HashPassword use cfg until the test ends.
func UseHashConfigForTest(t testing.TB, cfg CryptoConfig) {
	t.Helper()
	prev := getCryptoConfig()
	setCryptoConfig(cfg)
	t.Cleanup(func() { setCryptoConfig(prev) })
}

// FastHashingForTest swaps in cheap argon2 parameters so tests that log in
// do not pay the production hashing cost.
func FastHashingForTest(t testing.TB) {
	t.Helper()
	UseHashConfigForTest(t, TestCryptoConfig())
}

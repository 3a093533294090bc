package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheapArgon2 keeps argon2 tests fast; parameters still round-trip.
func cheapArgon2() *Argon2 {
	return &Argon2{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

// Requirement: verify(s, hash(s)) holds and verify(s1, hash(s2)) fails, for every algorithm.
func TestAlgorithms_RoundTrip(t *testing.T) {
	algorithms := []struct {
		name string
		alg  Algorithm
	}{
		{name: "bcrypt", alg: NewBcrypt(bcrypt.MinCost)},
		{name: "argon2id", alg: cheapArgon2()},
	}

	tests := []struct {
		name     string
		password string
		attempt  string
		wantOk   bool
	}{
		{name: "correct password", password: "abc123", attempt: "abc123", wantOk: true},
		{name: "wrong password", password: "abc123", attempt: "wrong", wantOk: false},
		{name: "case sensitive", password: "Abc123", attempt: "abc123", wantOk: false},
		{name: "extra character", password: "abc123", attempt: "abc1234", wantOk: false},
		{name: "empty attempt", password: "abc123", attempt: "", wantOk: false},
		{name: "unicode", password: "パスワード🔐", attempt: "パスワード🔐", wantOk: true},
		{name: "single char difference", password: "thisIsALongPasswordToTestDiffs", attempt: "thisIsALongPasswordXoTestDiffs", wantOk: false},
	}

	for _, a := range algorithms {
		for _, test := range tests {
			a, test := a, test
			t.Run(a.name+"/"+test.name, func(t *testing.T) {
				// Arrange
				hash, err := a.alg.Hash(test.password)
				require.NoError(t, err)

				// Act
				ok, err := a.alg.Verify(test.attempt, hash)

				// Assert
				require.NoError(t, err)
				assert.Equal(t, test.wantOk, ok)
				assert.True(t, a.alg.Identify(hash))
				assert.NotContains(t, hash, test.password)
			})
		}
	}
}

func TestAlgorithms_UniqueSalts(t *testing.T) {
	for _, alg := range []Algorithm{NewBcrypt(bcrypt.MinCost), cheapArgon2()} {
		h1, err := alg.Hash("samePassword")
		require.NoError(t, err)
		h2, err := alg.Hash("samePassword")
		require.NoError(t, err)

		assert.NotEqual(t, h1, h2)
	}
}

func TestBcrypt_CostOutOfRangeFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name string
		cost int
		want int
	}{
		{name: "zero", cost: 0, want: DefaultBcryptCost},
		{name: "too high", cost: bcrypt.MaxCost + 1, want: DefaultBcryptCost},
		{name: "in range", cost: 12, want: 12},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, NewBcrypt(test.cost).Cost)
		})
	}
}

func TestBcrypt_VerifyMalformedHashIsError(t *testing.T) {
	_, err := NewBcrypt(bcrypt.MinCost).Verify("password", "$2a$not-a-hash")

	assert.Error(t, err)
}

func TestArgon2_Verify_InvalidHashes(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{name: "empty", hash: ""},
		{name: "invalid format", hash: "invalid-hash"},
		{name: "too few parts", hash: "$argon2id$v=19$m=65536,t=3,p=2$salt"},
		{name: "unsupported algorithm", hash: "$argon2i$v=19$m=65536,t=3,p=2$salt$hash"},
		{name: "wrong version", hash: "$argon2id$v=16$m=65536,t=3,p=2$c2FsdA$aGFzaA"},
		{name: "zero parallelism", hash: "$argon2id$v=19$m=65536,t=3,p=0$c2FsdA$aGFzaA"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			_, err := cheapArgon2().Verify("password", test.hash)

			assert.Error(t, err)
		})
	}
}

func TestArgon2_HashEncodesParameters(t *testing.T) {
	a := &Argon2{Memory: 16 * 1024, Iterations: 2, Parallelism: 3, SaltLength: 24, KeyLength: 48}

	hash, err := a.Hash("test")
	require.NoError(t, err)
	params, salt, key, err := decodeArgon2Hash(hash)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
	assert.Equal(t, uint32(16*1024), params.Memory)
	assert.Equal(t, uint32(2), params.Iterations)
	assert.Equal(t, uint8(3), params.Parallelism)
	assert.Len(t, salt, 24)
	assert.Len(t, key, 48)
}

// Requirement: a hash written with other parameters or another algorithm is flagged for upgrade.
func TestHasher_NeedsUpgrade(t *testing.T) {
	lowBcrypt, err := NewBcrypt(bcrypt.MinCost).Hash("abc123")
	require.NoError(t, err)
	argonHash, err := cheapArgon2().Hash("abc123")
	require.NoError(t, err)

	tests := []struct {
		name      string
		primary   string
		cost      int
		hash      string
		wantStale bool
	}{
		{name: "bcrypt at same cost", primary: AlgorithmBcrypt, cost: bcrypt.MinCost, hash: lowBcrypt, wantStale: false},
		{name: "bcrypt at lower cost", primary: AlgorithmBcrypt, cost: bcrypt.MinCost + 1, hash: lowBcrypt, wantStale: true},
		{name: "argon2 under bcrypt primary", primary: AlgorithmBcrypt, cost: bcrypt.MinCost, hash: argonHash, wantStale: true},
		{name: "argon2 with cheaper params", primary: AlgorithmArgon2id, cost: 0, hash: argonHash, wantStale: true},
		{name: "bcrypt under argon2 primary", primary: AlgorithmArgon2id, cost: 0, hash: lowBcrypt, wantStale: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			h, err := NewHasher(test.primary, test.cost)
			require.NoError(t, err)

			assert.Equal(t, test.wantStale, h.NeedsUpgrade(test.hash))
		})
	}
}

// Requirement: the hasher verifies hashes written by any supported algorithm.
func TestHasher_VerifyDispatchesOnFormat(t *testing.T) {
	h, err := NewHasher(AlgorithmBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	argonHash, err := cheapArgon2().Hash("abc123")
	require.NoError(t, err)
	bcryptHash, err := h.Hash("abc123")
	require.NoError(t, err)

	for _, hash := range []string{argonHash, bcryptHash} {
		ok, err := h.Verify("abc123", hash)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = h.Verify("wrong", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	_, err = h.Verify("abc123", "plaintext")
	assert.ErrorIs(t, err, ErrUnsupportedHash)
}

func TestNewHasher_UnknownAlgorithm(t *testing.T) {
	_, err := NewHasher("md5", 0)

	assert.ErrorIs(t, err, ErrUnknownHasher)
}

func TestBcrypt_Concurrent(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)
	const goroutines = 8
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		i := i
		go func() {
			password := strings.Repeat("a", i+1)
			hash, err := b.Hash(password)
			if err != nil {
				errs <- err
				return
			}
			ok, err := b.Verify(password, hash)
			if err == nil && !ok {
				err = assert.AnError
			}
			errs <- err
		}()
	}

	for i := 0; i < goroutines; i++ {
		assert.NoError(t, <-errs)
	}
}

func FuzzBcrypt_RoundTrip(f *testing.F) {
	f.Add("abc123")
	f.Add("")
	f.Add("p@ssw0rd!#$%")
	f.Add("pass\x00word")

	f.Fuzz(func(t *testing.T, password string) {
		if len(password) > 72 {
			t.Skip("bcrypt rejects inputs over 72 bytes")
		}
		b := NewBcrypt(bcrypt.MinCost)

		hash, err := b.Hash(password)
		if err != nil {
			t.Fatalf("Hash() error = %v", err)
		}
		ok, err := b.Verify(password, hash)
		if err != nil || !ok {
			t.Fatalf("Verify() = %v, %v; want true, nil", ok, err)
		}
	})
}

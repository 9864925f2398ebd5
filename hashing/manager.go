package hashing

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager is a thread-safe driver registry and dispatcher.
//
// Register named [Hasher] implementations, choose a default, then route all
// hashing through the Manager. [Manager.VerifyWithDetect] picks the driver
// from the token prefix, so stores holding tokens from several drivers keep
// working while [Manager.NeedsRehash] migrates them to the default.
type Manager struct {
	mu      sync.RWMutex
	drivers map[DriverName]Hasher
	def     DriverName
	log     *zap.Logger
}

// ManagerOption customises a Manager at construction.
type ManagerOption func(*Manager)

// WithLogger attaches a structured logger. The Manager logs driver changes
// and rehash decisions at debug level; secrets and tokens are never logged.
func WithLogger(l *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// NewManager creates an empty Manager whose default driver is
// defaultDriver. Register drivers before hashing through it.
func NewManager(defaultDriver DriverName, opts ...ManagerOption) *Manager {
	m := &Manager{
		drivers: make(map[DriverName]Hasher),
		def:     defaultDriver,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("hashing")
	return m
}

// NewDefaultManager creates a Manager with every built-in driver registered
// at its default options. The default driver is [DriverPBKDF2].
func NewDefaultManager(opts ...ManagerOption) (*Manager, error) {
	pbkdf2H, err := NewPBKDF2Hasher(DefaultPBKDF2Options())
	if err != nil {
		return nil, fmt.Errorf("hashing: default pbkdf2 hasher: %w", err)
	}
	bcryptH, err := NewBcryptHasher(DefaultBcryptOptions())
	if err != nil {
		return nil, fmt.Errorf("hashing: default bcrypt hasher: %w", err)
	}
	argon2iH, err := NewArgon2iHasher(DefaultArgon2Options())
	if err != nil {
		return nil, fmt.Errorf("hashing: default argon2i hasher: %w", err)
	}
	argon2idH, err := NewArgon2idHasher(DefaultArgon2Options())
	if err != nil {
		return nil, fmt.Errorf("hashing: default argon2id hasher: %w", err)
	}

	m := NewManager(DriverPBKDF2, opts...)
	_ = m.RegisterDriver(DriverPBKDF2, pbkdf2H)
	_ = m.RegisterDriver(DriverBcrypt, bcryptH)
	_ = m.RegisterDriver(DriverArgon2i, argon2iH)
	_ = m.RegisterDriver(DriverArgon2id, argon2idH)
	return m, nil
}

// RegisterDriver adds or replaces the hasher registered under name.
func (m *Manager) RegisterDriver(name DriverName, h Hasher) error {
	if name == "" {
		return ErrEmptyDriverName
	}
	if h == nil {
		return ErrNilHasher
	}
	m.mu.Lock()
	_, replaced := m.drivers[name]
	m.drivers[name] = h
	m.mu.Unlock()

	m.log.Debug("driver registered",
		zap.String("driver", string(name)),
		zap.Bool("replaced", replaced),
	)
	return nil
}

// Driver returns the hasher registered under name.
func (m *Manager) Driver(name DriverName) (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDriverNotFound, name)
	}
	return h, nil
}

// SetDefaultDriver changes the driver used by Hash, Verify and NeedsRehash.
// The driver must already be registered.
func (m *Manager) SetDefaultDriver(name DriverName) error {
	m.mu.Lock()
	if _, ok := m.drivers[name]; !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q is not registered", ErrDriverNotFound, name)
	}
	prev := m.def
	m.def = name
	m.mu.Unlock()

	m.log.Debug("default driver changed",
		zap.String("from", string(prev)),
		zap.String("driver", string(name)),
	)
	return nil
}

// DefaultDriver returns the current default driver name.
func (m *Manager) DefaultDriver() DriverName {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// HasDriver reports whether name is registered.
func (m *Manager) HasDriver(name DriverName) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[name]
	return ok
}

// Hash hashes secret with the default driver.
func (m *Manager) Hash(secret []byte) (string, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return "", err
	}
	return h.Hash(secret)
}

// Verify checks secret against token with the default driver. Use
// [Manager.VerifyWithDetect] when the store may hold tokens from other
// drivers.
func (m *Manager) Verify(secret []byte, token string) (bool, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return false, err
	}
	return h.Verify(secret, token)
}

// VerifyWithDetect checks secret against token using the driver that
// produced it. It returns [ErrMalformedToken] if the prefix is unknown and
// [ErrDriverNotFound] if the detected driver is not registered.
func (m *Manager) VerifyWithDetect(secret []byte, token string) (bool, error) {
	h, err := m.resolveByToken(token)
	if err != nil {
		return false, err
	}
	return h.Verify(secret, token)
}

// NeedsRehash reports whether token should be replaced by a fresh Hash:
// either it came from a driver other than the default, or the default
// driver reports its parameters as stale.
func (m *Manager) NeedsRehash(token string) (bool, error) {
	detected, ok := DetectDriver(token)
	if !ok {
		return false, fmt.Errorf("%w: unrecognised prefix", ErrMalformedToken)
	}

	def := m.DefaultDriver()
	if detected != def {
		m.log.Debug("rehash decision",
			zap.String("driver", string(detected)),
			zap.String("default", string(def)),
			zap.Bool("needs_rehash", true),
		)
		return true, nil
	}

	h, err := m.Driver(detected)
	if err != nil {
		return false, err
	}
	needs, err := h.NeedsRehash(token)
	if err != nil {
		return false, err
	}
	m.log.Debug("rehash decision",
		zap.String("driver", string(detected)),
		zap.Bool("needs_rehash", needs),
	)
	return needs, nil
}

// Info extracts token metadata with the default driver.
func (m *Manager) Info(token string) (HashInfo, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return HashInfo{}, err
	}
	return h.Info(token)
}

// InfoWithDetect extracts token metadata using the driver that produced it.
func (m *Manager) InfoWithDetect(token string) (HashInfo, error) {
	h, err := m.resolveByToken(token)
	if err != nil {
		return HashInfo{}, err
	}
	return h.Info(token)
}

func (m *Manager) resolveDefault() (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[m.def]
	if !ok {
		return nil, fmt.Errorf("%w: default driver %q has not been registered",
			ErrDriverNotFound, m.def)
	}
	return h, nil
}

func (m *Manager) resolveByToken(token string) (Hasher, error) {
	name, ok := DetectDriver(token)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognised prefix", ErrMalformedToken)
	}
	return m.Driver(name)
}

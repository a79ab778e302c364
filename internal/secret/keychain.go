package secret

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultKeychainService groups formbuilder entries in the login keychain.
const DefaultKeychainService = "formbuilder-export"

// keychainNotFound is the exit status of `security` for a missing item.
const keychainNotFound = 44

// KeychainStore implements SecretStore on the macOS Keychain through the
// `security` CLI.
type KeychainStore struct {
	service string
}

func NewKeychainStore(service string) *KeychainStore {
	if service == "" {
		service = DefaultKeychainService
	}
	return &KeychainStore{service: service}
}

func (k *KeychainStore) Set(key string, value []byte) error {
	k.Delete(key)

	out, err := k.security("add-generic-password", "-a", key, "-w", string(value), "-U").CombinedOutput()
	if err != nil {
		return fmt.Errorf("keychain set %s: %s: %w", key, strings.TrimSpace(string(out)), err)
	}
	return nil
}

// Get returns nil without error when the key is absent.
func (k *KeychainStore) Get(key string) ([]byte, error) {
	out, err := k.security("find-generic-password", "-a", key, "-w").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == keychainNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("keychain get %s: %w", key, err)
	}
	return []byte(strings.TrimSpace(string(out))), nil
}

func (k *KeychainStore) Delete(key string) error {
	k.security("delete-generic-password", "-a", key).Run() // item may not exist
	return nil
}

func (k *KeychainStore) security(verb string, args ...string) *exec.Cmd {
	return exec.Command("security", append([]string{verb, "-s", k.service}, args...)...)
}

package profiles

import (
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hectane/go-acl"
	"github.com/opst/trainval/cmd/trainval/config/open"
	yaml "gopkg.in/yaml.v3"
)

var ErrProfileStoreNotFound = errors.New("profile store is not found")
var ErrCannotCreateStore = errors.New("cannot create profile store")
var ErrProfileInvalid = errors.New("profile is invalid")

const (
	// environment variables set by the platform when it hosts the app.
	EnvServerAddress = "SERVER_ADDRESS"
	EnvApiToken      = "API_TOKEN"

	apiPath = "/public/api/v3"
)

// ProfileStore is a map from profile name to Profile.
type ProfileStore map[string]*Profile

type Cert struct {
	// base64 encoded CA certificate
	CA string `yaml:"ca,omitempty"`
}

// Profile tells where the platform is and how to authenticate.
type Profile struct {
	// root of the platform API. e.g. https://app.example.com/public/api/v3
	ApiRoot string `yaml:"apiRoot"`

	// api token, sent as x-api-key header.
	Token string `yaml:"token"`

	Cert Cert `yaml:"cert,omitempty"`
}

func verifyUrl(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func verifyPEM(b64cert string) bool {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return false
	}
	blk, _ := pem.Decode(bin)
	return blk != nil
}

// Verify Profile
//
// # Return
//
// nil if it is valid. Otherwise, ErrProfileInvalid error.
func (p *Profile) Verify() error {
	if !verifyUrl(p.ApiRoot) {
		return fmt.Errorf("%w: apiRoot is not URL: %s", ErrProfileInvalid, p.ApiRoot)
	}
	if p.Cert.CA != "" && !verifyPEM(p.Cert.CA) {
		return fmt.Errorf("%w: cert.ca is not PEM", ErrProfileInvalid)
	}
	return nil
}

// FromEnv builds a Profile from environment variables, which are
// set when the platform runs this app.
//
// It returns false if any of them is missing.
func FromEnv(lookup func(string) (string, bool)) (*Profile, bool) {
	addr, ok := lookup(EnvServerAddress)
	if !ok || addr == "" {
		return nil, false
	}
	token, ok := lookup(EnvApiToken)
	if !ok || token == "" {
		return nil, false
	}

	root := strings.TrimSuffix(addr, "/")
	if !strings.HasSuffix(root, apiPath) {
		root += apiPath
	}
	return &Profile{ApiRoot: root, Token: token}, true
}

// LoadProfileStore loads profile store from file.
func LoadProfileStore(filepath string) (ProfileStore, error) {
	buf, err := os.ReadFile(filepath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrProfileStoreNotFound, filepath)
		}
		return nil, err
	}
	return Unmarshal(buf)
}

// Unmarshal profile store from yaml.
func Unmarshal(buf []byte) (ProfileStore, error) {
	ret := ProfileStore{}
	if err := yaml.Unmarshal(buf, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Save profile store to file.
//
// The previous content is kept in "<path>.backup" until writing is completed.
func (ps ProfileStore) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return err
	}

	buf, err := yaml.Marshal(ps)
	if err != nil {
		return err
	}

	bkpath := path + ".backup"
	if prev, err := os.ReadFile(path); err == nil {
		bk, err := open.NewSafeFile(bkpath)
		if err != nil {
			return err
		}
		_, err = bk.Write(prev)
		bk.Close()
		if err != nil {
			return err
		}

		// the existing file can have loose permission.
		if err := acl.Chmod(path, os.FileMode(0600)); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	f, err := open.NewSafeFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCannotCreateStore, path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf); err != nil {
		return err
	}
	os.Remove(bkpath)
	return nil
}

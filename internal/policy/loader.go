package policy

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a policy YAML file and returns the Policy with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Policy, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	var p Policy
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	if err := dec.Decode(&p); err != nil {
		return nil, nil, err
	}

	if err := Validate(&p); err != nil {
		return nil, data, err
	}

	return &p, data, nil
}

// LoadOrDefault loads the policy file, falling back to the built-in default
// 파일이 없으면 기본 정책 (개발 환경)
func LoadOrDefault(path string) (*Policy, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		p := Default()
		return p, Validate(p)
	}
	p, _, err := Load(path)
	return p, err
}

// Hash generates a SHA256 hash from the Policy (canonical JSON)
// 주의: map 대신 struct 직렬화로 해시 재현성 보장
func Hash(p *Policy) (string, error) {
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

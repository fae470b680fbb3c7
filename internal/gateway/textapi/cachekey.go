package textapi

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/enitrat/cairo-wasm/internal/gateway/contract"
)

type cacheKeyWire struct {
	CrateName        string            `json:"crate_name"`
	Files            map[string]string `json:"files"`
	CorelibFiles     map[string]string `json:"corelib_files"`
	EmbeddedCorelib  bool              `json:"embedded_corelib"`
	ReplaceIDs       bool              `json:"replace_ids"`
	InliningStrategy string            `json:"inlining_strategy"`
}

// CacheKey hashes the canonical form of a compile request. encoding/json sorts
// map keys, so equal requests hash equally regardless of field order.
func CacheKey(req contract.CompileRequest) (string, error) {
	raw, err := json.Marshal(cacheKeyWire{
		CrateName:        req.CrateName,
		Files:            req.Files,
		CorelibFiles:     req.CorelibFiles,
		EmbeddedCorelib:  req.CorelibFiles == nil,
		ReplaceIDs:       req.ReplaceIDs,
		InliningStrategy: string(req.InliningStrategy),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

package issuance

import (
	"fmt"
	"strconv"

	"certgate/internal/capability"
	"certgate/pkg/domain"
)

// workingContext accumulates step outputs; later steps read earlier results
// from it.
type workingContext map[string]any

func (w workingContext) merge(r capability.Result) {
	for k, v := range r {
		w[k] = v
	}
}

type step struct {
	operation func(req domain.OperationRequest) string
	params    func(req domain.OperationRequest, namespace string, wc workingContext) capability.Params
}

var (
	generateKey = step{
		operation: func(req domain.OperationRequest) string {
			return capability.GenerateKeyOperation(req.Algorithm.String())
		},
		params: func(req domain.OperationRequest, ns string, _ workingContext) capability.Params {
			return capability.Params{
				capability.ParamKeySize:    req.KeySizeBits,
				capability.ParamOutputName: ns,
			}
		},
	}

	createCSR = step{
		operation: func(domain.OperationRequest) string { return capability.OpCreateCSR },
		params: func(req domain.OperationRequest, ns string, wc workingContext) capability.Params {
			p := capability.Params{
				capability.ParamCommonName: req.SubjectName,
				capability.ParamOutputName: ns,
			}
			copyKeys(p, wc, capability.ParamPrivateKeyPath)
			return p
		},
	}

	selfSign = step{
		operation: func(domain.OperationRequest) string { return capability.OpSelfSignCert },
		params: func(req domain.OperationRequest, ns string, wc workingContext) capability.Params {
			p := capability.Params{
				capability.ParamOutputName:   ns,
				capability.ParamValidityDays: req.ValidityDays,
			}
			copyKeys(p, wc, capability.ParamCSRPath, capability.ParamPrivateKeyPath)
			return p
		},
	}
)

// pipelines is the fixed step sequence per operation kind.
var pipelines = map[domain.OperationKind][]step{
	domain.KindCertificateIssuance: {generateKey, createCSR, selfSign},
	domain.KindKeyGeneration:       {generateKey},
}

// copyKeys moves outputs of earlier steps into params. A key that is absent
// stays absent so the provider reports it as missing.
func copyKeys(dst capability.Params, wc workingContext, keys ...string) {
	for _, k := range keys {
		if v, ok := wc[k]; ok {
			dst[k] = v
		}
	}
}

// artifactKeys maps working-context keys to the names reported in outcomes
// and audit records.
var artifactKeys = []struct{ from, to string }{
	{capability.ParamCertPath, "certificate_path"},
	{capability.ParamPrivateKeyPath, "private_key_path"},
	{capability.ParamPublicKeyPath, "public_key_path"},
	{capability.ParamCSRPath, "csr_path"},
	{capability.ParamSerialNumber, "serial_number"},
	{capability.ParamNotAfter, "not_after"},
	{capability.ParamValidityDays, "validity_days"},
	{capability.ParamAlgorithm, "algorithm"},
}

func collectArtifacts(wc workingContext) map[string]string {
	out := make(map[string]string)
	for _, k := range artifactKeys {
		if v, ok := wc[k.from]; ok {
			out[k.to] = stringify(v)
		}
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(v)
	}
}

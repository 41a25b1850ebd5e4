// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/stacklok/tokencore/pkg/codec"
	"github.com/stacklok/tokencore/pkg/dpop"
	"github.com/stacklok/tokencore/pkg/keys"
	"github.com/stacklok/tokencore/pkg/logger"
)

func newDPoPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dpop",
		Short: "Mint and validate DPoP proofs",
	}
	cmd.AddCommand(newDPoPProofCmd())
	cmd.AddCommand(newDPoPValidateCmd())
	cmd.AddCommand(newDPoPNonceCmd())
	return cmd
}

type proofFlags struct {
	method      string
	url         string
	accessToken string
	nonce       string
}

func (f *proofFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.method, "method", http.MethodPost, "HTTP method of the request")
	cmd.Flags().StringVar(&f.url, "url", "", "Absolute URL of the request")
	cmd.Flags().StringVar(&f.accessToken, "access-token", "", "Access token presented with the request")
	cmd.Flags().StringVar(&f.nonce, "nonce", "", "Server-provided nonce")
	_ = cmd.MarkFlagRequired("url")
}

func newDPoPProofCmd() *cobra.Command {
	var (
		flags  proofFlags
		alg    string
		claims string
	)

	cmd := &cobra.Command{
		Use:   "proof",
		Short: "Mint a DPoP proof with a fresh key",
		Long: `Mint a DPoP proof JWT for one request. A new key pair is generated for the
proof and its public key is embedded in the header. The thumbprint of the key
is logged so that bound tokens can be checked against it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			extra, err := codec.DecodeProperties(claims)
			if err != nil {
				return err
			}
			key, err := keys.GenerateKey(alg)
			if err != nil {
				return err
			}

			proof, err := dpop.NewProof(key, jose.SignatureAlgorithm(alg), dpop.ProofClaims{
				ID:          uuid.NewString(),
				Method:      flags.method,
				URL:         flags.url,
				IssuedAt:    time.Now(),
				AccessToken: flags.accessToken,
				Nonce:       flags.nonce,
				Extra:       extra,
			})
			if err != nil {
				return err
			}

			jwk := jose.JSONWebKey{Key: key.Public()}
			if tp, err := dpop.Thumbprint(&jwk); err == nil {
				logger.Infof("Proof key thumbprint: %s", tp)
			}
			fmt.Fprintln(cmd.OutOrStdout(), proof)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&alg, "alg", string(jose.ES256), "Proof signing algorithm")
	cmd.Flags().StringVar(&claims, "claims", "", "Additional string claims as a JSON object")
	return cmd
}

func newDPoPValidateCmd() *cobra.Command {
	var (
		flags         proofFlags
		proof         string
		authorization string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a DPoP proof",
		Long: `Validate a DPoP proof against a request. The proof is given with --proof, or
taken from --authorization together with the access token when the header
value uses the DPoP scheme.

Replayed proofs are only detected across invocations with the redis storage
type.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vctx := dpop.Context{
				Proof:         proof,
				Method:        flags.method,
				URL:           flags.url,
				ExpectedNonce: flags.nonce,
				AccessToken:   flags.accessToken,
			}
			if authorization != "" {
				h := http.Header{}
				h.Set("Authorization", authorization)
				if proof != "" {
					h.Set(dpop.HeaderName, proof)
				}
				req, err := dpop.TokenFromHeader(h)
				if err != nil {
					return err
				}
				vctx.AccessToken, vctx.Proof = req.AccessToken, req.Proof
			}
			if vctx.Proof == "" {
				return errors.New("a proof is required, use --proof")
			}

			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				v, err := rt.validator()
				if err != nil {
					return err
				}
				res, err := v.Validate(ctx, vctx)
				if err != nil {
					return err
				}
				return printResult(cmd, res)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&proof, "proof", "", "DPoP proof JWT")
	cmd.Flags().StringVar(&authorization, "authorization", "", "Authorization header value")
	return cmd
}

func printResult(cmd *cobra.Command, res *dpop.Result) error {
	out := cmd.OutOrStdout()
	if res.IsError {
		fmt.Fprintf(out, "error: %s\n", res.Error)
		fmt.Fprintf(out, "error_description: %s\n", res.ErrorDescription)
		if res.ServerIssuedNonce != "" {
			fmt.Fprintf(out, "dpop_nonce: %s\n", res.ServerIssuedNonce)
		}
		return fmt.Errorf("proof rejected: %s", res.ErrorDescription)
	}

	props := make(map[string]string, len(res.Payload))
	for _, c := range res.Payload {
		props[c.Name] = fmt.Sprint(c.Value)
	}
	claims, err := codec.EncodeProperties(props)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "valid: true")
	fmt.Fprintf(out, "jkt: %s\n", res.JSONWebKeyThumbprint)
	fmt.Fprintf(out, "cnf: %s\n", res.Confirmation)
	fmt.Fprintf(out, "issued_at: %s\n", res.IssuedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "claims: %s\n", claims)
	return nil
}

func newDPoPNonceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nonce",
		Short: "Issue a server nonce",
		Long: `Issue a DPoP nonce sealed with the configured data protection keys. Clients
put it in the nonce claim of their next proof.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(_ context.Context, rt *runtime) error {
				issuer, err := rt.nonceIssuer()
				if err != nil {
					return err
				}
				if issuer == nil {
					return errors.New("issuing nonces requires a data protection key")
				}
				nonce, err := issuer.Issue()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), nonce)
				return nil
			})
		},
	}
}

package tlsconf

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/rs/zerolog/log"
)

// LoadSSM builds credentials from every parameter stored under path in AWS
// SSM Parameter Store. Each parameter is treated like one file of a
// credential directory, in parameter name order, so the same key rules apply.
func LoadSSM(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string) (*Credentials, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	var params []types.Parameter
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read SSM parameters under %s: %w", path, err)
		}
		params = append(params, page.Parameters...)
	}

	sort.Slice(params, func(i, j int) bool {
		return aws.ToString(params[i].Name) < aws.ToString(params[j].Name)
	})

	builder := NewBuilder()

	for _, p := range params {
		name := aws.ToString(p.Name)
		log.Debug().Str("parameter", name).Msg("Scanning for certificates or private key")

		if err := builder.AddPEM(name, []byte(aws.ToString(p.Value))); err != nil {
			return nil, err
		}
	}

	return builder.Complete()
}

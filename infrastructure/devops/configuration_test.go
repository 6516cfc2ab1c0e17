package devops

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const entriesYAML = `
- name: patrol
  host: db.internal
  database: patrol
  username: patrol
  password: s3cret
- name: reports
  host: replica.internal
  port: 3307
  database: patrol
  username: reader
  password: r
`

type fakeSSM struct {
	value *string
	err   error
	name  string
}

func (f *fakeSSM) GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.name = aws.ToString(in.Name)
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: f.value}}, nil
}

func TestFetchDBEntries(t *testing.T) {
	client := &fakeSSM{value: aws.String(entriesYAML)}

	entries, err := FetchDBEntries(context.Background(), client, "databases")
	require.NoError(t, err)
	assert.Equal(t, "databases", client.name)
	require.Len(t, entries, 2)

	e, err := FindDBEntry(entries, "patrol")
	require.NoError(t, err)
	assert.Equal(t, "patrol:s3cret@tcp(db.internal:3306)/patrol?charset=utf8mb4&loc=UTC&parseTime=true", e.DSN())

	e, err = FindDBEntry(entries, "reports")
	require.NoError(t, err)
	assert.Contains(t, e.DSN(), "tcp(replica.internal:3307)")

	_, err = FindDBEntry(entries, "missing")
	assert.Error(t, err)
}

func TestFetchDBEntriesErrors(t *testing.T) {
	_, err := FetchDBEntries(context.Background(), &fakeSSM{err: errors.New("denied")}, "databases")
	assert.ErrorContains(t, err, "denied")

	_, err = FetchDBEntries(context.Background(), &fakeSSM{}, "databases")
	assert.Error(t, err)

	_, err = FetchDBEntries(context.Background(), &fakeSSM{value: aws.String("{not: [yaml")}, "databases")
	assert.ErrorContains(t, err, "unmarshal yaml")
}

package db

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/floppydaw/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items []map[string]*dynamodb.AttributeValue
	err   error
	input *dynamodb.BatchGetItemInput
}

func (f *fakeDynamo) BatchGetItem(input *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]*dynamodb.AttributeValue{"songs": f.items},
	}, nil
}

func TestGetMidiMetadatas(t *testing.T) {
	fake := &fakeDynamo{items: []map[string]*dynamodb.AttributeValue{
		{
			"PK":      {S: aws.String("a.mid")},
			"Artist":  {S: aws.String("Artist")},
			"Release": {S: aws.String("Release")},
			"Title":   {S: aws.String("Title")},
			"Year":    {N: aws.String("1999")},
		},
		{
			"PK":    {S: aws.String("b.mid")},
			"Title": {S: aws.String("Only a title")},
		},
	}}
	catalog := NewCatalog(fake, "songs")

	res, err := catalog.GetMidiMetadatas([]string{"a.mid", "b.mid", "c.mid"})

	require.NoError(t, err)
	assert := assert.New(t)
	assert.Equal(map[string]model.MidiMetadata{
		"a.mid": {Artist: "Artist", Release: "Release", Title: "Title", Year: 1999},
		"b.mid": {Title: "Only a title"},
	}, res)
	assert.Len(fake.input.RequestItems["songs"].Keys, 3)
}

func TestGetMidiMetadatasLimits(t *testing.T) {
	catalog := NewCatalog(&fakeDynamo{}, "songs")

	res, err := catalog.GetMidiMetadatas(nil)
	require.NoError(t, err)
	assert.Empty(t, res)

	_, err = catalog.GetMidiMetadatas(make([]string, MaxBatchSize+1))
	assert.Error(t, err)
}

func TestGetMidiMetadata(t *testing.T) {
	fake := &fakeDynamo{}
	catalog := NewCatalog(fake, "songs")

	m, err := catalog.GetMidiMetadata("missing.mid")
	require.NoError(t, err)
	assert.Nil(t, m)

	fake.err = errors.New("throttled")
	_, err = catalog.GetMidiMetadata("missing.mid")
	assert.ErrorContains(t, err, "throttled")
}

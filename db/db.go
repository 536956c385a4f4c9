package db

import (
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/floppydaw/model"
	"github.com/pkg/errors"
)

// BatchGetItem takes at most 100 keys, keep well below.
const MaxBatchSize = 10

type Options struct {
	Endpoint string
	Region   string
	Table    string
}

// Catalog looks up artist/title metadata of midi files by file name.
type Catalog struct {
	client dynamodbiface.DynamoDBAPI
	table  string
}

func NewCatalog(client dynamodbiface.DynamoDBAPI, table string) *Catalog {
	return &Catalog{client: client, table: table}
}

// Connect builds a Catalog on a fresh DynamoDB session. An empty endpoint
// uses the AWS default for the region.
func Connect(opts Options) (*Catalog, error) {
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "Could not create a new DynamoDB session")
	}
	return NewCatalog(dynamodb.New(sess), opts.Table), nil
}

func (c *Catalog) GetMidiMetadatas(filenames []string) (map[string]model.MidiMetadata, error) {
	if len(filenames) > MaxBatchSize {
		return nil, errors.Errorf("at most %d filenames per lookup, got %d", MaxBatchSize, len(filenames))
	}

	res := make(map[string]model.MidiMetadata)

	if len(filenames) == 0 {
		return res, nil
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, filename := range filenames {
		key := make(map[string]*dynamodb.AttributeValue)
		key["PK"] = &dynamodb.AttributeValue{
			S: aws.String(filename),
		}
		keys = append(keys, key)
	}

	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			c.table: {Keys: keys},
		},
	}
	dbres, err := c.client.BatchGetItem(input)
	if err != nil {
		return nil, errors.Wrap(err, "Error from DynamoDB")
	}

	for _, v := range dbres.Responses[c.table] {
		pk := stringAttr(v, "PK")
		if pk == "" {
			continue
		}
		var s model.MidiMetadata
		if year, ok := v["Year"]; ok && year.N != nil {
			n, _ := strconv.ParseUint(*year.N, 10, 32)
			s.Year = uint(n)
		}
		s.Artist = stringAttr(v, "Artist")
		s.Release = stringAttr(v, "Release")
		s.Title = stringAttr(v, "Title")
		res[pk] = s
	}

	return res, nil
}

// GetMidiMetadata returns nil when the file is not in the catalog.
func (c *Catalog) GetMidiMetadata(filename string) (*model.MidiMetadata, error) {
	metadatas, err := c.GetMidiMetadatas([]string{filename})
	if err != nil {
		return nil, err
	}
	m, ok := metadatas[filename]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func stringAttr(item map[string]*dynamodb.AttributeValue, name string) string {
	if v, ok := item[name]; ok && v.S != nil {
		return *v.S
	}
	return ""
}

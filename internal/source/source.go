package source

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/elements/internal/config"
	"github.com/vango-dev/elements/internal/errors"
)

// DefaultMaxSize caps how many bytes a single source may hold.
const DefaultMaxSize = 8 << 20

// S3API is the subset of *s3.Client used to fetch objects.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Location is a parsed source location.
type Location struct {
	// Bucket and Key are set for s3:// locations.
	Bucket string
	Key    string

	// Path is set for local files.
	Path string
}

// IsS3 reports whether l names an S3 object.
func (l Location) IsS3() bool {
	return l.Bucket != ""
}

func (l Location) String() string {
	if l.IsS3() {
		return "s3://" + l.Bucket + "/" + l.Key
	}
	return l.Path
}

// Parse parses a local path or an s3://bucket/key URL.
func Parse(location string) (Location, error) {
	if !strings.Contains(location, "://") {
		if location == "" {
			return Location{}, errors.New("E082").WithDetail("empty source location")
		}
		return Location{Path: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return Location{}, errors.New("E082").Wrap(err)
	}
	switch u.Scheme {
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.New("E082").
				WithDetail("s3 locations need a bucket and a key: " + location)
		}
		return Location{Bucket: u.Host, Key: key}, nil
	case "file":
		return Location{Path: u.Path}, nil
	}
	return Location{}, errors.New("E082").WithDetail("unsupported scheme " + strconv.Quote(u.Scheme))
}

// Loader reads documents and manifests from disk or S3.
type Loader struct {
	client  S3API
	maxSize int64
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3Client sets the client used for s3:// locations.
func WithS3Client(client S3API) Option {
	return func(l *Loader) {
		l.client = client
	}
}

// WithMaxSize sets the size limit of a single source.
func WithMaxSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		maxSize: DefaultMaxSize,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "source")
	return l
}

// Read returns the content of location.
func (l *Loader) Read(ctx context.Context, location string) ([]byte, error) {
	loc, err := Parse(location)
	if err != nil {
		return nil, err
	}
	if loc.IsS3() {
		return l.readS3(ctx, loc)
	}
	return l.readFile(loc)
}

func (l *Loader) readFile(loc Location) ([]byte, error) {
	f, err := os.Open(loc.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E080").WithDetail(loc.Path + " does not exist")
		}
		return nil, errors.New("E080").Wrap(err)
	}
	defer f.Close()
	l.logger.Debug("reading source", "path", loc.Path)
	return l.readLimited(loc, f)
}

func (l *Loader) readS3(ctx context.Context, loc Location) ([]byte, error) {
	if l.client == nil {
		return nil, errors.New("E081").WithDetail("no S3 client configured for " + loc.String())
	}
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if stderrors.As(err, &missing) {
			return nil, errors.New("E080").WithDetail(loc.String() + " does not exist")
		}
		return nil, errors.New("E081").Wrap(err)
	}
	defer out.Body.Close()

	if out.ContentLength != nil && l.maxSize > 0 && *out.ContentLength > l.maxSize {
		return nil, tooLarge(loc, l.maxSize)
	}
	l.logger.Debug("reading source", "bucket", loc.Bucket, "key", loc.Key)
	return l.readLimited(loc, out.Body)
}

func (l *Loader) readLimited(loc Location, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if l.maxSize > 0 {
		n, err := io.Copy(&buf, io.LimitReader(r, l.maxSize+1))
		if err != nil {
			return nil, errors.New("E081").Wrap(err)
		}
		if n > l.maxSize {
			return nil, tooLarge(loc, l.maxSize)
		}
		return buf.Bytes(), nil
	}
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, errors.New("E081").Wrap(err)
	}
	return buf.Bytes(), nil
}

func tooLarge(loc Location, max int64) error {
	return errors.New("E084").
		WithDetail(loc.String() + " exceeds " + strconv.FormatInt(max, 10) + " bytes")
}

// NewS3Client builds an S3 client from configuration. Static credentials
// are taken from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY when set;
// otherwise requests are anonymous.
func NewS3Client(cfg config.S3Config) *s3.Client {
	awsCfg := aws.Config{
		Region:      cfg.Region,
		Credentials: aws.AnonymousCredentials{},
	}
	if id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); id != "" && secret != "" {
		creds := aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}
		awsCfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
}

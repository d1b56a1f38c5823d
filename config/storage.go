package config

import (
	"fmt"
	"os"
)

// R2Params are the per-request parameters handed to the S3 client.
type R2Params struct {
	Bucket string `json:"Bucket"`
	ACL    string `json:"ACL"`
}

// R2Options describes the Cloudflare R2 bucket uploads are written to.
// It is passed to the storage layer unchanged.
type R2Options struct {
	AccessKeyID      string   `json:"accessKeyId"`
	SecretAccessKey  string   `json:"secretAccessKey"`
	Region           string   `json:"region"`
	Endpoint         string   `json:"endpoint"`
	Params           R2Params `json:"params"`
	ForcePathStyle   bool     `json:"s3ForcePathStyle"`
	SignatureVersion string   `json:"signatureVersion"`
}

// LoadR2Options builds the R2 provider options from CLOUDFLARE_* variables.
func LoadR2Options() R2Options {
	return R2Options{
		AccessKeyID:     os.Getenv("CLOUDFLARE_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("CLOUDFLARE_SECRET_ACCESS_KEY"),
		Region:          "auto",
		Endpoint:        fmt.Sprintf("https://%s.r2.cloudflarestorage.com", os.Getenv("CLOUDFLARE_ACCOUNT_ID")),
		Params: R2Params{
			Bucket: getEnv("CLOUDFLARE_BUCKET_NAME", "images"),
			ACL:    "public-read",
		},
		ForcePathStyle:   true,
		SignatureVersion: "v4",
	}
}

// GCSOptions configures the Google Cloud Storage provider.
type GCSOptions struct {
	Bucket string
	// CredentialsJSON is a base64 encoded service account key.
	CredentialsJSON string
}

// LoadGCSOptions reads GCS_BUCKET and GCS_CREDENTIALS_JSON.
func LoadGCSOptions() GCSOptions {
	return GCSOptions{
		Bucket:          os.Getenv("GCS_BUCKET"),
		CredentialsJSON: os.Getenv("GCS_CREDENTIALS_JSON"),
	}
}

// SFTPOptions configures the SFTP provider. Either Password or PrivateKey
// (base64 or raw PEM) must be set.
type SFTPOptions struct {
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey string
	RootDir    string
}

// LoadSFTPOptions reads the SFTP_* variables.
func LoadSFTPOptions() SFTPOptions {
	return SFTPOptions{
		Host:       os.Getenv("SFTP_HOST"),
		Port:       getInt("SFTP_PORT", 22),
		User:       os.Getenv("SFTP_USER"),
		Password:   os.Getenv("SFTP_PASSWORD"),
		PrivateKey: os.Getenv("SFTP_PRIVATE_KEY"),
		RootDir:    getEnv("SFTP_ROOT", "/srv/media"),
	}
}

// Copyright (c) 2026 Stockroom. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taibuivan/stockroom/internal/platform/sanitize"
)

// errUploadRejected is returned by "upload check" so the exit status reflects the result.
var errUploadRejected = errors.New("upload rejected")

// sniffLength is how much of the file http.DetectContentType looks at.
const sniffLength = 512

func newUploadCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "upload",
		Short: "Check files against the upload policy",
	}
	command.AddCommand(newUploadCheckCommand())
	return command
}

func newUploadCheckCommand() *cobra.Command {
	var contentType string
	var maxSize int64

	command := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a local file as an upload and print its storage name",
		Long: `Validate a local file the way an upload would be validated.

The content type is sniffed from the first 512 bytes unless --content-type is
given. Office documents sniff as application/zip, so pass their declared type.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			info, err := file.Stat()
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", args[0])
			}

			if contentType == "" {
				head := make([]byte, sniffLength)
				read, err := io.ReadFull(file, head)
				if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
					return err
				}
				contentType = http.DetectContentType(head[:read])
			}

			name := filepath.Base(args[0])
			var problems []string
			if cmd.Flags().Changed("max-size") {
				problems = sanitize.UploadPolicy{MaxSize: maxSize}.Validate(name, contentType, info.Size())
			} else {
				problems = sanitize.ValidateFileUpload(name, contentType, info.Size())
			}

			out := cmd.OutOrStdout()
			if len(problems) > 0 {
				for _, problem := range problems {
					fmt.Fprintln(out, "-", problem)
				}
				return errUploadRejected
			}

			fmt.Fprintf(out, "%s -> %s\n", name, sanitize.SecureFilename(name))
			return nil
		},
	}

	command.Flags().StringVar(&contentType, "content-type", "", "declared content type (default: sniffed)")
	command.Flags().Int64Var(&maxSize, "max-size", sanitize.DefaultMaxFileSize, "maximum size in bytes")
	return command
}

package cmd

import (
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"gopkg.in/cheggaaa/pb.v2"
)

func GetCmd() cli.Command {
	return cli.Command{
		Name:      "get",
		Usage:     "Download a remote file",
		ArgsUsage: "<location> [local path]",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name: "no-progress",
			},
		},
		Action: func(c *cli.Context) {
			if err := get(c); err != nil {
				logrus.WithError(err).Fatalf("Error running get command")
			}
		},
	}
}

func get(c *cli.Context) (err error) {
	client, loc, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	f, err := client.Open(loc.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	dest := c.Args().Get(1)
	if dest == "" {
		dest = path.Base(loc.Path)
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		dest = filepath.Join(dest, path.Base(loc.Path))
	}
	lock, err := lockDestination(dest)
	if err != nil {
		return err
	}
	defer func() {
		lock.Unlock()
		os.Remove(lock.Path())
	}()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "cannot create %v", dest)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dest)
		}
	}()

	var w io.Writer = out
	if !c.Bool("no-progress") {
		bar := pb.New64(f.Stat().Size()).SetWriter(errWriter(c)).Start()
		defer bar.Finish()
		w = io.MultiWriter(out, progressWriter{bar})
	}

	n, err := io.Copy(w, f)
	if err != nil {
		return errors.Wrapf(err, "download of %v stopped after %d bytes", loc, n)
	}
	logrus.Debugf("Downloaded %v to %v, %d bytes", loc, dest, n)
	return nil
}

// lockDestination keeps two downloads from writing the same local file.
func lockDestination(dest string) (*flock.Flock, error) {
	lock := flock.New(dest + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot lock %v", dest)
	}
	if !locked {
		return nil, errors.Errorf("another download to %v is in progress", dest)
	}
	return lock, nil
}

type progressWriter struct {
	bar *pb.ProgressBar
}

func (p progressWriter) Write(b []byte) (int, error) {
	p.bar.Add(len(b))
	return len(b), nil
}

// Command gen-fixtures writes small synthetic raw datasets for manual
// end-to-end runs of xrconvert -dataset all.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/xrmotion/internal/xror"
)

// pose is one joint sample in meters with a yaw-only rotation.
type pose struct {
	x, y, z float64
	yaw     float64 // radians
}

// quat returns the rotation as x, y, z, w.
func (p pose) quat() [4]float64 {
	return [4]float64{0, math.Sin(p.yaw / 2), 0, math.Cos(p.yaw / 2)}
}

// sample returns head, left and right hand poses for frame i of a gentle
// swaying motion.
func sample(i int) [3]pose {
	t := float64(i) / 90
	sway := 0.05 * math.Sin(2*math.Pi*0.5*t)
	return [3]pose{
		{x: sway, y: 1.65 + 0.01*math.Sin(2*math.Pi*t), z: 0, yaw: 0.2 * math.Sin(2*math.Pi*0.25*t)},
		{x: -0.25 + sway, y: 1.1 + 0.1*math.Sin(2*math.Pi*t), z: 0.3, yaw: 0.1},
		{x: 0.25 + sway, y: 1.1 + 0.1*math.Cos(2*math.Pi*t), z: 0.3, yaw: -0.1},
	}
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func writeCSV(path string, header []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeVRNet writes one pose.csv with one row per device per frame. Every
// seventh left-hand row is dropped to exercise gap interpolation.
func writeVRNet(root string, frames int) (string, error) {
	path := filepath.Join(root, "vr_net", "demo_game", "alice 01", "pose.csv")
	var rows [][]string
	for i := 0; i < frames; i++ {
		ts := 1700000000000 + float64(i)*1000/90
		for dev, p := range sample(i) {
			if dev == 1 && i%7 == 3 {
				continue
			}
			c, s := math.Cos(p.yaw), math.Sin(p.yaw)
			m := []float64{
				c, 0, s, p.x,
				0, 1, 0, p.y,
				-s, 0, c, p.z,
			}
			fields := make([]string, len(m))
			for k, v := range m {
				fields[k] = ftoa(v)
			}
			rows = append(rows, []string{ftoa(ts), strconv.Itoa(dev), strconv.Itoa(i), strings.Join(fields, " ")})
		}
	}
	return path, writeCSV(path, []string{"timestamp", "device_id", "framecounter", "deviceToAbsoluteTracking"}, rows)
}

// writeMoore writes one data/<token>_<build>.csv in seconds and meters.
func writeMoore(root string, frames int) (string, error) {
	path := filepath.Join(root, "moore_cross_domain23", "data", "XQFAB001aZ_build1.csv")
	header := []string{"Timestamp"}
	for _, j := range []string{"Head", "LeftHand", "RightHand"} {
		header = append(header,
			j+"_position_x", j+"_position_y", j+"_position_z",
			j+"_quat_x", j+"_quat_y", j+"_quat_z", j+"_quat_w")
	}
	rows := make([][]string, 0, frames)
	for i := 0; i < frames; i++ {
		row := []string{ftoa(12.5 + float64(i)/90)}
		for _, p := range sample(i) {
			q := p.quat()
			row = append(row, ftoa(p.x), ftoa(p.y), ftoa(p.z), ftoa(q[0]), ftoa(q[1]), ftoa(q[2]), ftoa(q[3]))
		}
		rows = append(rows, row)
	}
	return path, writeCSV(path, header, rows)
}

// writeBOXRR writes one Beat Saber container with binary frames.
func writeBOXRR(root string, frames int) (string, error) {
	path := filepath.Join(root, "boxrr23", "user-0001", "session-0001.xror")
	data := make([][]float64, 0, frames)
	for i := 0; i < frames; i++ {
		row := []float64{float64(i) / 90}
		for _, p := range sample(i) {
			q := p.quat()
			row = append(row, p.x, p.y, p.z, q[0], q[1], q[2], q[3])
		}
		data = append(data, row)
	}
	b, err := xror.Pack(xror.Info{UserID: "user-0001", AppName: "Beat Saber", AppVersion: "1.29.1"}, data, true)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0644)
}

func main() {
	out := flag.String("o", "fixtures", "output root")
	frames := flag.Int("n", 270, "frames per recording")
	flag.Parse()

	if *frames < 1 {
		log.Fatal("-n must be positive")
	}
	for _, gen := range []func(string, int) (string, error){writeVRNet, writeMoore, writeBOXRR} {
		path, err := gen(*out, *frames)
		if err != nil {
			log.Fatalf("failed to write fixture: %v", err)
		}
		log.Printf("✓ Created: %s", path)
	}
	fmt.Printf("xrconvert -dataset all -in %s -out converted\n", *out)
}

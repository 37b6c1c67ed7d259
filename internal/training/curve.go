package training

import (
	"image/color"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const curveFile = "training_curve.png"

// saveCurve plots evaluation accuracy and average loss against epoch.
func saveCurve(dir string, history []EvalRecord) (string, error) {
	if len(history) == 0 {
		return "", errors.New("no evaluations to plot")
	}

	p := plot.New()
	p.Title.Text = "Evaluation by epoch"
	p.X.Label.Text = "Epoch"
	p.Y.Label.Text = "Value"

	accuracy := make(plotter.XYs, len(history))
	loss := make(plotter.XYs, len(history))
	for i, r := range history {
		accuracy[i] = plotter.XY{X: float64(r.Epoch), Y: r.Accuracy}
		loss[i] = plotter.XY{X: float64(r.Epoch), Y: r.AverageLoss}
	}

	accLine, accPoints, err := plotter.NewLinePoints(accuracy)
	if err != nil {
		return "", err
	}
	accLine.Color = color.RGBA{B: 255, A: 255, R: 50, G: 50}
	accPoints.GlyphStyle.Color = accLine.Color

	lossLine, lossPoints, err := plotter.NewLinePoints(loss)
	if err != nil {
		return "", err
	}
	lossLine.Color = color.RGBA{R: 255, A: 255}
	lossLine.LineStyle.Width = vg.Points(2)
	lossPoints.GlyphStyle.Color = lossLine.Color

	p.Add(accLine, accPoints, lossLine, lossPoints)
	p.Legend.Add("accuracy", accLine, accPoints)
	p.Legend.Add("average_loss", lossLine, lossPoints)
	p.Legend.Top = true

	path := filepath.Join(dir, curveFile)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", errors.Wrap(err, "failed to save training curve")
	}
	return path, nil
}

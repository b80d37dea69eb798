// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"image-labeler/internal/app"
	"image-labeler/internal/editor"
	"image-labeler/internal/export"
	"image-labeler/internal/project"
	"image-labeler/ui/canvas"
)

const prefKeyLastDir = "lastDirectory"

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp"}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app   fyne.App
	state *app.State
	log   *logrus.Logger

	surface      *editor.Surface
	canvasWidget *canvas.Widget
	autosaver    *project.Autosaver

	canvasHolder *fyne.Container
	toolBox      *fyne.Container
	classList    *widget.List
	annList      *widget.List
	statusBar    *widget.Label

	annotationIDs []int
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, log *logrus.Logger) *MainWindow {
	if log == nil {
		log = logrus.StandardLogger()
	}
	win := fyneApp.NewWindow("Image Labeler")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		log:    log,
	}

	mw.autosaver = project.NewAutosaver(project.DefaultAutosaveDelay, state.SaveProject, log)

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupKeyboard()

	win.SetCloseIntercept(func() {
		mw.autosaver.Flush()
		win.Close()
	})
	win.Resize(fyne.NewSize(1200, 800))

	return mw
}

func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Open or create a project to begin")
	mw.canvasHolder = container.NewStack(widget.NewLabel("No project open"))
	mw.toolBox = container.NewHBox()

	mw.classList = widget.NewList(
		func() int { return mw.state.Classes.Len() },
		func() fyne.CanvasObject { return widget.NewLabel("class") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			all := mw.state.Classes.All()
			if i < len(all) {
				o.(*widget.Label).SetText(fmt.Sprintf("%d: %s", all[i].ID, all[i].Name))
			}
		},
	)
	mw.classList.OnSelected = func(i widget.ListItemID) {
		all := mw.state.Classes.All()
		if mw.surface != nil && i < len(all) {
			mw.surface.SetCurrentClass(all[i].ID)
		}
	}

	mw.annList = widget.NewList(
		func() int { return len(mw.annotationIDs) },
		func() fyne.CanvasObject { return widget.NewLabel("annotation") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if mw.surface == nil || i >= len(mw.annotationIDs) {
				return
			}
			a := mw.surface.Annotations().Get(mw.annotationIDs[i])
			if a == nil {
				return
			}
			name := "?"
			if c, ok := mw.state.Classes.ClassByID(a.ClassID); ok {
				name = c.Name
			}
			o.(*widget.Label).SetText(fmt.Sprintf("#%d %s (%s)", a.ID, name, a.Data.Kind()))
		},
	)
	mw.annList.OnSelected = func(i widget.ListItemID) {
		if mw.surface != nil && i < len(mw.annotationIDs) {
			mw.surface.Annotations().Select(mw.annotationIDs[i])
			mw.refreshCanvas()
		}
	}

	classEntry := widget.NewEntry()
	classEntry.SetPlaceHolder("New class name")
	addClassBtn := widget.NewButton("Add", func() {
		if classEntry.Text == "" {
			return
		}
		mw.state.AddClass(classEntry.Text)
		classEntry.SetText("")
		mw.classList.Refresh()
	})

	side := container.NewVSplit(
		container.NewBorder(widget.NewLabel("Classes"), container.NewBorder(nil, nil, nil, addClassBtn, classEntry), nil, nil, mw.classList),
		container.NewBorder(widget.NewLabel("Annotations"), nil, nil, nil, mw.annList),
	)

	canvasArea := container.NewBorder(mw.toolBox, nil, nil, nil, mw.canvasHolder)
	split := container.NewHSplit(side, canvasArea)
	split.SetOffset(0.22)

	content := container.NewBorder(nil, container.NewPadded(mw.statusBar), nil, nil, split)
	mw.SetContent(content)
}

func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project...", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save", mw.onSave),
		fyne.NewMenuItem("Export YOLO...", mw.onExportYOLO),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.autosaver.Flush(); mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		fyne.NewMenuItem("Fit to Window", mw.onFit),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Rotate View 90", func() { mw.rotateView(90) }),
		fyne.NewMenuItem("Toggle Grid", mw.onToggleGrid),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, helpMenu))
}

func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(interface{}) {
		mw.rebuildSurface()
		mw.classList.Refresh()
		mw.SetTitle("Image Labeler - " + filepath.Base(mw.state.ProjectPath))
		mw.updateStatus("Project: " + mw.state.ProjectPath)
	})

	mw.state.On(app.EventClassesChanged, func(interface{}) {
		mw.classList.Refresh()
	})

	mw.state.On(app.EventProjectSaved, func(interface{}) {
		mw.updateStatus("Saved")
	})
}

// rebuildSurface replaces the annotation surface after a project switch;
// the set of editors depends on the project type.
func (mw *MainWindow) rebuildSurface() {
	pt, err := mw.state.EditorProjectType()
	if err != nil {
		mw.log.WithError(err).Error("cannot build surface")
		return
	}

	surface, err := editor.NewSurface(pt, mw.state.Classes, editor.Callbacks{
		Mutated:         mw.onSurfaceMutated,
		RedrawRequested: func() { mw.refreshCanvas() },
		Toast:           mw.onToast,
	}, mw.log)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}

	mw.surface = surface
	mw.canvasWidget = canvas.New(surface)
	mw.canvasHolder.Objects = []fyne.CanvasObject{mw.canvasWidget}
	mw.canvasHolder.Refresh()
	mw.rebuildToolbar()
}

func (mw *MainWindow) rebuildToolbar() {
	mw.toolBox.Objects = nil

	tools := []editor.Tool{editor.ToolSelect, editor.ToolPan, editor.ToolBBox,
		editor.ToolOBB, editor.ToolMask, editor.ToolKeypoint, editor.ToolLandmark}
	for _, t := range tools {
		tool := t
		btn := widget.NewButton(tool.String(), func() {
			mw.surface.SetTool(tool)
		})
		mw.toolBox.Add(btn)
	}
	mw.toolBox.Add(widget.NewSeparator())
	mw.toolBox.Add(widget.NewButton("-", mw.onZoomOut))
	mw.toolBox.Add(widget.NewButton("+", mw.onZoomIn))
	mw.toolBox.Add(widget.NewButton("Fit", mw.onFit))
	mw.toolBox.Refresh()
}

func (mw *MainWindow) onSurfaceMutated() {
	mw.state.StoreAnnotations(mw.surface.Annotations().Items())
	mw.state.SetModified(true)
	mw.autosaver.Trigger()
	mw.syncAnnotationList()
	mw.refreshCanvas()
}

func (mw *MainWindow) syncAnnotationList() {
	mw.annotationIDs = mw.annotationIDs[:0]
	if mw.surface != nil {
		for _, a := range mw.surface.Annotations().Items() {
			mw.annotationIDs = append(mw.annotationIDs, a.ID)
		}
	}
	mw.annList.Refresh()
}

func (mw *MainWindow) refreshCanvas() {
	if mw.canvasWidget != nil {
		mw.canvasWidget.Refresh()
	}
}

func (mw *MainWindow) onToast(msg string, level editor.Level) {
	switch level {
	case editor.LevelWarning:
		mw.updateStatus("Warning: " + msg)
	case editor.LevelError:
		mw.updateStatus("Error: " + msg)
	default:
		mw.updateStatus(msg)
	}
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// setupKeyboard installs the merged keyboard map: application keys plus
// the shortcuts contributed by the active project's editors. Keys are
// suppressed while a text entry is focused.
func (mw *MainWindow) setupKeyboard() {
	mw.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if _, isEntry := mw.Canvas().Focused().(*widget.Entry); isEntry {
			return
		}
		if mw.surface == nil {
			return
		}
		mw.handleKey(ev.Name)
	})
	mw.Canvas().SetOnTypedRune(func(r rune) {
		if _, isEntry := mw.Canvas().Focused().(*widget.Entry); isEntry {
			return
		}
		if mw.surface == nil {
			return
		}
		// Class selection on 1-9.
		if r >= '1' && r <= '9' {
			mw.surface.SetCurrentClassByIndex(int(r - '1'))
			mw.updateStatus(fmt.Sprintf("Class %c selected", r))
		}
	})
}

func (mw *MainWindow) handleKey(name fyne.KeyName) {
	switch name {
	case fyne.KeyS:
		mw.surface.SetTool(editor.ToolSelect)
	case fyne.KeyH:
		mw.surface.SetTool(editor.ToolPan)
	case fyne.KeyB:
		mw.surface.SetTool(editor.ToolBBox)
	case fyne.KeyO:
		mw.surface.SetTool(editor.ToolOBB)
	case fyne.KeyM:
		mw.surface.SetTool(editor.ToolMask)
	case fyne.KeyK:
		mw.surface.SetTool(editor.ToolKeypoint)
	case fyne.KeyL:
		mw.surface.SetTool(editor.ToolLandmark)
	case fyne.KeyDelete, fyne.KeyBackspace:
		mw.surface.DeleteSelected()
		mw.syncAnnotationList()
	case fyne.KeyG:
		mw.surface.ToggleGrid()
	case fyne.KeyEqual, fyne.KeyPlus:
		mw.onZoomIn()
	case fyne.KeyMinus:
		mw.onZoomOut()
	case fyne.KeyF:
		mw.onFit()
	case fyne.KeyUp:
		mw.panView(0, keyPanStep)
	case fyne.KeyDown:
		mw.panView(0, -keyPanStep)
	case fyne.KeyLeft:
		mw.panView(keyPanStep, 0)
	case fyne.KeyRight:
		mw.panView(-keyPanStep, 0)
	default:
		for _, sc := range mw.surface.ActiveEditorShortcuts() {
			if fyne.KeyName(sc.Key) == name && sc.Action != nil {
				sc.Action()
				return
			}
		}
	}
}

// keyPanStep is the canvas-pixel distance one arrow key press pans the view.
const keyPanStep = 40.0

func (mw *MainWindow) panView(dx, dy float64) {
	if mw.surface == nil || !mw.surface.HasImage() {
		return
	}
	mw.surface.View.PanBy(dx, dy)
	mw.refreshCanvas()
}

// zoomCenter zooms about the image center so keyboard zoom has a stable
// anchor.
func (mw *MainWindow) zoomCenter(in bool) {
	if mw.surface == nil || !mw.surface.HasImage() {
		return
	}
	w, h := mw.surface.ImageSize()
	cx, cy := mw.surface.View.ImageToCanvas(float64(w)/2, float64(h)/2)
	if in {
		mw.surface.View.ZoomInAt(cx, cy)
	} else {
		mw.surface.View.ZoomOutAt(cx, cy)
	}
	mw.refreshCanvas()
}

func (mw *MainWindow) onZoomIn()  { mw.zoomCenter(true) }
func (mw *MainWindow) onZoomOut() { mw.zoomCenter(false) }

func (mw *MainWindow) onFit() {
	if mw.canvasWidget != nil {
		mw.canvasWidget.FitToWindow()
	}
}

func (mw *MainWindow) rotateView(degrees float64) {
	if mw.surface != nil {
		mw.surface.RotateView(degrees)
	}
}

func (mw *MainWindow) onToggleGrid() {
	if mw.surface != nil {
		mw.surface.ToggleGrid()
	}
}

func (mw *MainWindow) onNewProject() {
	typeSelect := widget.NewSelect([]string{
		project.TypeDetection, project.TypeOrientedDetection,
		project.TypeSegmentation, project.TypePose, project.TypeLandmarks,
	}, nil)
	typeSelect.SetSelected(project.TypeDetection)
	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Project name")

	form := dialog.NewForm("New Project", "Create", "Cancel",
		[]*widget.FormItem{
			widget.NewFormItem("Name", nameEntry),
			widget.NewFormItem("Type", typeSelect),
		},
		func(ok bool) {
			if !ok || nameEntry.Text == "" {
				return
			}
			dialog.ShowFileSave(func(uri fyne.URIWriteCloser, err error) {
				if err != nil || uri == nil {
					return
				}
				uri.Close()
				path := uri.URI().Path()
				mw.saveLastDir(path)
				if err := mw.state.NewProject(path, nameEntry.Text, typeSelect.Selected); err != nil {
					dialog.ShowError(err, mw.Window)
				}
			}, mw.Window)
		}, mw.Window)
	form.Show()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(uri fyne.URIReadCloser, err error) {
		if err != nil || uri == nil {
			return
		}
		uri.Close()
		path := uri.URI().Path()
		mw.saveLastDir(path)
		mw.autosaver.Flush()
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".labelproj"}))
	if dir := mw.getLastDir(); dir != nil {
		fd.SetLocation(dir)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenImage() {
	if mw.surface == nil {
		mw.updateStatus("Open a project first")
		return
	}
	fd := dialog.NewFileOpen(func(uri fyne.URIReadCloser, err error) {
		if err != nil || uri == nil {
			return
		}
		uri.Close()
		path := uri.URI().Path()
		mw.saveLastDir(path)
		mw.loadImage(path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	if dir := mw.getLastDir(); dir != nil {
		fd.SetLocation(dir)
	}
	fd.Show()
}

func (mw *MainWindow) loadImage(path string) {
	img, anns, err := mw.state.OpenImage(path)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.surface.LoadImage(img)
	for _, a := range anns {
		mw.surface.Annotations().Add(a)
	}
	mw.syncAnnotationList()
	mw.canvasWidget.FitToWindow()
	mw.updateStatus("Image: " + filepath.Base(path))
}

func (mw *MainWindow) onSave() {
	if err := mw.state.SaveProject(); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onExportYOLO() {
	if mw.surface == nil || !mw.surface.HasImage() {
		mw.updateStatus("Nothing to export")
		return
	}
	dialog.ShowFileSave(func(uri fyne.URIWriteCloser, err error) {
		if err != nil || uri == nil {
			return
		}
		uri.Close()
		w, h := mw.surface.ImageSize()
		path := uri.URI().Path()
		if err := export.SaveYOLO(path, mw.surface.Annotations().Items(), w, h); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + filepath.Base(path))
	}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About", "Image Labeler\nAnnotation tool for detection, segmentation, and pose datasets.", mw.Window)
}

func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

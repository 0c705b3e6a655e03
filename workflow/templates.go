package workflow

// GitHub Actions expression syntax uses {{ }}, so the Go templates below
// use [[ ]] delimiters to keep the two from colliding.

const repositoryDeployTemplate = `name: Amplify Deploy
on:
  push:
    branches:
      - [[ .Branch ]]

permissions:
  contents: read

jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - name: Checkout
        uses: actions/checkout@v4

      - name: Setup Node
        uses: actions/setup-node@v4
        with:
          node-version: '[[ .NodeVersion ]]'
          cache: npm

      - name: Install dependencies
        run: npm ci
[[- if .HasAmplifyBackend ]]

      - name: Deploy backend
        run: npx ampx pipeline-deploy --branch [[ .Branch ]] --app-id [[ .AppID ]]
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.AWS_ACCESS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.AWS_SECRET_ACCESS_KEY }}
          AWS_REGION: [[ .Region ]]
[[- end ]]

      - name: Wait for Amplify build
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.AWS_ACCESS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.AWS_SECRET_ACCESS_KEY }}
          AWS_REGION: [[ .Region ]]
        run: |
          echo "Waiting for Amplify auto build on branch [[ .Branch ]]"
          for i in $(seq 1 60); do
            STATUS=$(aws amplify list-jobs --app-id [[ .AppID ]] --branch-name [[ .Branch ]] \
              --max-results 1 --query 'jobSummaries[0].status' --output text)
            echo "Build status: $STATUS"
            case "$STATUS" in
              SUCCEED) exit 0 ;;
              FAILED|CANCELLED) exit 1 ;;
            esac
            sleep 30
          done
          echo "Timed out waiting for Amplify build"
          exit 1
`

const manualDeployTemplate = `name: Amplify Deploy
on:
  push:
    branches:
      - [[ .Branch ]]

permissions:
  contents: read

jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - name: Checkout
        uses: actions/checkout@v4

      - name: Setup Node
        uses: actions/setup-node@v4
        with:
          node-version: '[[ .NodeVersion ]]'
          cache: npm

      - name: Install dependencies
        run: npm ci
[[- if .HasAmplifyBackend ]]

      - name: Generate backend outputs
        run: npx ampx generate outputs --app-id [[ .AppID ]] --branch [[ .Branch ]]
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.AWS_ACCESS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.AWS_SECRET_ACCESS_KEY }}
          AWS_REGION: [[ .Region ]]
[[- end ]]

      - name: Build
        run: [[ .BuildCommand ]]
[[- if .WebhookURL ]]

      - name: Trigger frontend build
        run: curl -sf -X POST "[[ .WebhookURL ]]"

      - name: Wait for Amplify build
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.AWS_ACCESS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.AWS_SECRET_ACCESS_KEY }}
          AWS_REGION: [[ .Region ]]
        run: |
          echo "Waiting for webhook-triggered build on branch [[ .Branch ]]"
          sleep 15
          for i in $(seq 1 60); do
            STATUS=$(aws amplify list-jobs --app-id [[ .AppID ]] --branch-name [[ .Branch ]] \
              --max-results 1 --query 'jobSummaries[0].status' --output text)
            echo "Build status: $STATUS"
            case "$STATUS" in
              SUCCEED) exit 0 ;;
              FAILED|CANCELLED) exit 1 ;;
            esac
            sleep 15
          done
          echo "Timed out waiting for Amplify build"
          exit 1
[[- else ]]

      - name: Package build output
        run: |
          cd [[ .ArtifactDir ]]
          zip -r ../deploy-bundle.zip .

      - name: Deploy to Amplify
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.AWS_ACCESS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.AWS_SECRET_ACCESS_KEY }}
          AWS_REGION: [[ .Region ]]
        run: |
          DEPLOYMENT=$(aws amplify create-deployment \
            --app-id [[ .AppID ]] --branch-name [[ .Branch ]] \
            --query '{jobId: jobId, zipUploadUrl: zipUploadUrl}' --output json)
          JOB_ID=$(echo "$DEPLOYMENT" | jq -r .jobId)
          UPLOAD_URL=$(echo "$DEPLOYMENT" | jq -r .zipUploadUrl)
          curl -sf -X PUT -T deploy-bundle.zip "$UPLOAD_URL"
          aws amplify start-deployment \
            --app-id [[ .AppID ]] --branch-name [[ .Branch ]] --job-id "$JOB_ID"
          for i in $(seq 1 60); do
            STATUS=$(aws amplify get-job --app-id [[ .AppID ]] --branch-name [[ .Branch ]] \
              --job-id "$JOB_ID" --query 'job.summary.status' --output text)
            echo "Deployment status: $STATUS"
            case "$STATUS" in
              SUCCEED) exit 0 ;;
              FAILED|CANCELLED) exit 1 ;;
            esac
            sleep 15
          done
          echo "Timed out waiting for deployment"
          exit 1
[[- end ]]
`

const autoFixTemplate = `name: Amplify Auto Fix
on:
  workflow_run:
    workflows: ["Amplify Deploy"]
    types:
      - completed

permissions:
  contents: write

jobs:
  fix:
    runs-on: ubuntu-latest
    if: ${{ github.event.workflow_run.conclusion == 'failure' }}
    steps:
      - name: Checkout
        uses: actions/checkout@v4
        with:
          ref: ${{ github.event.workflow_run.head_branch }}

      - name: Setup Node
        uses: actions/setup-node@v4
        with:
          node-version: '[[ .NodeVersion ]]'
          cache: npm

      - name: Install dependencies
        run: npm ci

      - name: Fix lint issues
        run: npx eslint . --fix || true

      - name: Fix formatting
        run: npx prettier --write . || true

      - name: Fix vulnerable dependencies
        run: npm audit fix || true
[[- if .HasAmplifyBackend ]]

      - name: Regenerate backend outputs
        run: npx ampx generate outputs --app-id [[ .AppID ]] --branch [[ .Branch ]] || true
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.AWS_ACCESS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.AWS_SECRET_ACCESS_KEY }}
          AWS_REGION: [[ .Region ]]
[[- end ]]

      - name: Commit fixes
        run: |
          git config user.name "amplify-auto-fix"
          git config user.email "auto-fix@users.noreply.github.com"
          git add -A
          if git diff --cached --quiet; then
            echo "No fixable changes"
            exit 0
          fi
          git commit -m "fix: apply automated build fixes [skip ci]"
          git push origin HEAD:${{ github.event.workflow_run.head_branch }}
`
